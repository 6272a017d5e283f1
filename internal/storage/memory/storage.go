package memory

import (
	"context"
	"sync"

	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/storage"
)

// Storage is an in-memory implementation of the score store
type Storage struct {
	mu     sync.RWMutex
	scores map[string]*model.Score
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		scores: make(map[string]*model.Score),
	}
}

// Ensure Storage implements the interface
var _ storage.ScoreStore = (*Storage)(nil)

func (s *Storage) UpsertScore(ctx context.Context, username string) (*model.Score, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyScore(s.getOrCreate(username)), nil
}

func (s *Storage) IncrementScore(ctx context.Context, username string, field model.ScoreField) (*model.Score, error) {
	if !field.IsValid() {
		return nil, model.ErrInvalidScoreField
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	score := s.getOrCreate(username)
	score.Increment(field)
	return copyScore(score), nil
}

func (s *Storage) GetScore(ctx context.Context, username string) (*model.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	score, ok := s.scores[username]
	if !ok {
		return nil, model.ErrScoreNotFound
	}
	return copyScore(score), nil
}

func (s *Storage) Close() error {
	return nil
}

// getOrCreate must be called with the write lock held
func (s *Storage) getOrCreate(username string) *model.Score {
	score, ok := s.scores[username]
	if !ok {
		score = model.ZeroScore(username)
		s.scores[username] = score
	}
	return score
}

func copyScore(score *model.Score) *model.Score {
	c := *score
	return &c
}
