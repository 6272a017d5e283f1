// Package storagetest holds the behavioural contract every ScoreStore
// implementation must satisfy.
package storagetest

import (
	"context"
	"sync"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/storage"
)

// ScoreStoreSuite runs against the store returned by NewStore before each test.
// Backends embed it and set NewStore.
type ScoreStoreSuite struct {
	suite.Suite
	NewStore func() storage.ScoreStore

	Store storage.ScoreStore
	Ctx   context.Context
}

func (s *ScoreStoreSuite) SetupTest() {
	s.Store = s.NewStore()
	s.Ctx = context.Background()
}

func (s *ScoreStoreSuite) TearDownTest() {
	if s.Store != nil {
		_ = s.Store.Close()
	}
}

func (s *ScoreStoreSuite) TestGetScoreNotFound() {
	_, err := s.Store.GetScore(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrScoreNotFound)
}

func (s *ScoreStoreSuite) TestUpsertCreatesZeroedRecord() {
	score, err := s.Store.UpsertScore(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.Score{Username: "alice"}, *score)

	retrieved, err := s.Store.GetScore(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.Score{Username: "alice"}, *retrieved)
}

func (s *ScoreStoreSuite) TestUpsertKeepsExistingCounters() {
	_, err := s.Store.IncrementScore(s.Ctx, "alice", model.ScoreWins)
	s.Require().NoError(err)

	score, err := s.Store.UpsertScore(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(int64(1), score.Wins)
}

func (s *ScoreStoreSuite) TestIncrementCreatesRecord() {
	score, err := s.Store.IncrementScore(s.Ctx, "bob", model.ScoreLosses)
	s.Require().NoError(err)
	s.Equal(model.Score{Username: "bob", Losses: 1}, *score)
}

func (s *ScoreStoreSuite) TestIncrementEachField() {
	for _, field := range model.ValidScoreFields() {
		_, err := s.Store.IncrementScore(s.Ctx, "carol", field)
		s.Require().NoError(err)
	}
	score, err := s.Store.IncrementScore(s.Ctx, "carol", model.ScoreDraws)
	s.Require().NoError(err)
	s.Equal(model.Score{Username: "carol", Wins: 1, Losses: 1, Draws: 2}, *score)
}

func (s *ScoreStoreSuite) TestIncrementRejectsInvalidField() {
	_, err := s.Store.IncrementScore(s.Ctx, "dave", model.ScoreField("ties"))
	s.ErrorIs(err, model.ErrInvalidScoreField)

	_, err = s.Store.GetScore(s.Ctx, "dave")
	s.ErrorIs(err, model.ErrScoreNotFound)
}

func (s *ScoreStoreSuite) TestScoresAreIsolatedByUsername() {
	_, _ = s.Store.IncrementScore(s.Ctx, "alice", model.ScoreWins)
	_, _ = s.Store.IncrementScore(s.Ctx, "bob", model.ScoreLosses)

	alice, err := s.Store.GetScore(s.Ctx, "alice")
	s.Require().NoError(err)
	bob, err := s.Store.GetScore(s.Ctx, "bob")
	s.Require().NoError(err)

	s.Equal(model.Score{Username: "alice", Wins: 1}, *alice)
	s.Equal(model.Score{Username: "bob", Losses: 1}, *bob)
}

func (s *ScoreStoreSuite) TestReturnedRecordIsACopy() {
	score, err := s.Store.UpsertScore(s.Ctx, "alice")
	s.Require().NoError(err)
	score.Wins = 99

	retrieved, err := s.Store.GetScore(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(int64(0), retrieved.Wins)
}

func (s *ScoreStoreSuite) TestConcurrentIncrementsAreNotLost() {
	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Store.IncrementScore(s.Ctx, "alice", model.ScoreDraws)
			s.NoError(err)
		}()
	}
	wg.Wait()

	score, err := s.Store.GetScore(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(int64(n), score.Draws)
}
