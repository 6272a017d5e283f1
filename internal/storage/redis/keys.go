package redis

import "fmt"

// scoreKey returns the Redis key for the score hash of a username
func scoreKey(prefix, username string) string {
	return fmt.Sprintf("%s:score:%s", prefix, username)
}
