package main

import "github.com/mcoot/rpsgame/internal/cli"

func main() {
	cli.Execute()
}
