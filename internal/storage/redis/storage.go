package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/storage"
)

// Storage is a Redis-backed score store. Each username is a hash with
// wins, losses and draws fields.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultConfig().KeyPrefix
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.ScoreStore = (*Storage)(nil)

func (s *Storage) UpsertScore(ctx context.Context, username string) (*model.Score, error) {
	key := scoreKey(s.cfg.KeyPrefix, username)

	var all *redis.MapStringStringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		ensureFields(ctx, pipe, key)
		all = pipe.HGetAll(ctx, key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return parseScore(username, all.Val())
}

func (s *Storage) IncrementScore(ctx context.Context, username string, field model.ScoreField) (*model.Score, error) {
	if !field.IsValid() {
		return nil, model.ErrInvalidScoreField
	}
	key := scoreKey(s.cfg.KeyPrefix, username)

	// MULTI/EXEC so the returned record reflects exactly this increment
	var all *redis.MapStringStringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		ensureFields(ctx, pipe, key)
		pipe.HIncrBy(ctx, key, string(field), 1)
		all = pipe.HGetAll(ctx, key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return parseScore(username, all.Val())
}

func (s *Storage) GetScore(ctx context.Context, username string) (*model.Score, error) {
	values, err := s.client.HGetAll(ctx, scoreKey(s.cfg.KeyPrefix, username)).Result()
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, model.ErrScoreNotFound
	}
	return parseScore(username, values)
}

// ensureFields queues HSETNX for every counter so a new record starts at zero
func ensureFields(ctx context.Context, pipe redis.Pipeliner, key string) {
	for _, f := range model.ValidScoreFields() {
		pipe.HSetNX(ctx, key, string(f), 0)
	}
}

func parseScore(username string, values map[string]string) (*model.Score, error) {
	score := model.ZeroScore(username)
	targets := map[model.ScoreField]*int64{
		model.ScoreWins:   &score.Wins,
		model.ScoreLosses: &score.Losses,
		model.ScoreDraws:  &score.Draws,
	}
	for field, dst := range targets {
		raw, ok := values[string(field)]
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s for %q: %w", field, username, err)
		}
		*dst = n
	}
	return score, nil
}
