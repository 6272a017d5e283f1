package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/storage"
)

// Config holds persistence pool settings
type Config struct {
	Workers      int
	QueueSize    int
	WriteTimeout time.Duration
}

// DefaultConfig returns the default pool settings
func DefaultConfig() Config {
	return Config{
		Workers:      2,
		QueueSize:    256,
		WriteTimeout: 5 * time.Second,
	}
}

type task struct {
	kind string
	run  func(ctx context.Context) error
}

// Ledger attributes round outcomes to display names. Synchronous methods
// talk to the store directly; Submit and Touch queue the same work for a
// background pool so gameplay never waits on the store.
type Ledger struct {
	store  storage.ScoreStore
	cfg    Config
	logger *slog.Logger

	tasks chan task

	mu      sync.RWMutex // guards closed against sends on tasks
	closed  bool
	started bool

	workers sync.WaitGroup
	pending sync.WaitGroup
}

// New creates a Ledger. Call Start before queueing work.
func New(store storage.ScoreStore, cfg Config, logger *slog.Logger) *Ledger {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	return &Ledger{
		store:  store,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "ledger")),
		tasks:  make(chan task, cfg.QueueSize),
	}
}

// RecordOutcome increments the matching counter for both names. Both
// increments are attempted even if the first fails.
func (l *Ledger) RecordOutcome(ctx context.Context, nameA, nameB string, outcome model.Outcome) error {
	switch outcome {
	case model.OutcomePlayerOneWins, model.OutcomePlayerTwoWins, model.OutcomeDraw:
	default:
		return fmt.Errorf("record outcome %q: %w", outcome, model.ErrInvalidScoreField)
	}
	fieldA, fieldB := model.FieldsFor(outcome)

	_, errA := l.store.IncrementScore(ctx, nameA, fieldA)
	if errA != nil {
		errA = fmt.Errorf("increment %s for %q: %w", fieldA, nameA, errA)
	}
	_, errB := l.store.IncrementScore(ctx, nameB, fieldB)
	if errB != nil {
		errB = fmt.Errorf("increment %s for %q: %w", fieldB, nameB, errB)
	}
	return errors.Join(errA, errB)
}

// Upsert creates a zeroed record for name if none exists
func (l *Ledger) Upsert(ctx context.Context, name string) (*model.Score, error) {
	return l.store.UpsertScore(ctx, name)
}

// GetScore returns the record for name, or a zeroed record if there is none
func (l *Ledger) GetScore(ctx context.Context, name string) (*model.Score, error) {
	score, err := l.store.GetScore(ctx, name)
	if errors.Is(err, model.ErrScoreNotFound) {
		return model.ZeroScore(name), nil
	}
	if err != nil {
		return nil, err
	}
	return score, nil
}

// Submit queues RecordOutcome for the pool. It reports false if the task was
// dropped because the queue is full or the ledger is closed.
func (l *Ledger) Submit(nameA, nameB string, outcome model.Outcome) bool {
	return l.enqueue(task{
		kind: "outcome",
		run: func(ctx context.Context) error {
			return l.RecordOutcome(ctx, nameA, nameB, outcome)
		},
	}, slog.String("name_a", nameA), slog.String("name_b", nameB), slog.String("outcome", string(outcome)))
}

// Touch queues an Upsert for the pool
func (l *Ledger) Touch(name string) bool {
	return l.enqueue(task{
		kind: "upsert",
		run: func(ctx context.Context) error {
			_, err := l.Upsert(ctx, name)
			return err
		},
	}, slog.String("name", name))
}

func (l *Ledger) enqueue(t task, attrs ...any) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		l.logger.Warn("ledger closed, dropping task", append([]any{slog.String("task", t.kind)}, attrs...)...)
		return false
	}

	l.pending.Add(1)
	select {
	case l.tasks <- t:
		return true
	default:
		l.pending.Done()
		l.logger.Error("ledger queue full, dropping task",
			append([]any{slog.String("task", t.kind), slog.Int("queue_size", l.cfg.QueueSize)}, attrs...)...)
		return false
	}
}

// Start launches the worker pool. Workers stop once ctx is cancelled or
// Close drains the queue.
func (l *Ledger) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started || l.closed {
		return
	}
	l.started = true

	for i := 0; i < l.cfg.Workers; i++ {
		l.workers.Add(1)
		go l.work(ctx, i)
	}
	l.logger.Info("ledger started", slog.Int("workers", l.cfg.Workers), slog.Int("queue_size", l.cfg.QueueSize))
}

func (l *Ledger) work(ctx context.Context, n int) {
	defer l.workers.Done()
	logger := l.logger.With(slog.Int("worker", n))

	for {
		select {
		case <-ctx.Done():
			logger.Debug("context done, stopping ledger worker")
			return
		case t, ok := <-l.tasks:
			if !ok {
				return
			}
			l.run(ctx, logger, t)
		}
	}
}

func (l *Ledger) run(ctx context.Context, logger *slog.Logger, t task) {
	defer l.pending.Done()

	tctx := ctx
	if l.cfg.WriteTimeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, l.cfg.WriteTimeout)
		defer cancel()
	}

	if err := t.run(tctx); err != nil {
		logger.Error("ledger write failed", slog.String("task", t.kind), slog.Any("error", err))
	}
}

// Wait blocks until every queued task has been processed. It must not be
// called after the workers' context has been cancelled.
func (l *Ledger) Wait() {
	l.pending.Wait()
}

// QueueLen returns the number of tasks waiting for a worker
func (l *Ledger) QueueLen() int {
	return len(l.tasks)
}

// Close stops accepting work, lets the workers drain the queue and waits
// for them to exit
func (l *Ledger) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	close(l.tasks)
	l.mu.Unlock()

	l.workers.Wait()
	l.logger.Info("ledger stopped")
}
