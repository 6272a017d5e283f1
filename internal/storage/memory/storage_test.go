package memory

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsgame/internal/storage"
	"github.com/mcoot/rpsgame/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.ScoreStoreSuite
}

func TestStorageSuite(t *testing.T) {
	s := new(StorageSuite)
	s.NewStore = func() storage.ScoreStore { return New() }
	suite.Run(t, s)
}
