package storage

import (
	"context"

	"github.com/mcoot/rpsgame/internal/model"
)

// ScoreStore is the persistence collaborator behind the score ledger.
// Records are keyed by username. Implementations return copies; callers
// may not mutate a record to change stored state.
type ScoreStore interface {
	// UpsertScore returns the record for username, creating a zeroed one if absent
	UpsertScore(ctx context.Context, username string) (*model.Score, error)

	// IncrementScore adds one to field, creating the record if absent, and
	// returns the updated record
	IncrementScore(ctx context.Context, username string, field model.ScoreField) (*model.Score, error)

	// GetScore returns model.ErrScoreNotFound if no record exists
	GetScore(ctx context.Context, username string) (*model.Score, error)

	// Close releases any underlying resources
	Close() error
}
