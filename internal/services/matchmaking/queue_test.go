package matchmaking

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/testutil"
)

type fakePresence struct {
	mu   sync.Mutex
	live map[model.ConnectionID]bool
}

func newFakePresence(ids ...model.ConnectionID) *fakePresence {
	p := &fakePresence{live: make(map[model.ConnectionID]bool)}
	for _, id := range ids {
		p.live[id] = true
	}
	return p
}

func (p *fakePresence) Has(id model.ConnectionID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live[id]
}

func (p *fakePresence) drop(id model.ConnectionID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.live, id)
}

type QueueSuite struct {
	suite.Suite
	presence *fakePresence
	queue    *Queue
}

func TestQueueSuite(t *testing.T) {
	suite.Run(t, new(QueueSuite))
}

func (s *QueueSuite) SetupTest() {
	s.presence = newFakePresence("a", "b", "c")
	s.queue = NewQueue(s.presence, testutil.NopLogger())
}

func (s *QueueSuite) TestFirstArrivalWaits() {
	_, ok := s.queue.Join("a")
	s.False(ok)

	waiting, ok := s.queue.Waiting()
	s.True(ok)
	s.Equal(model.ConnectionID("a"), waiting)
}

func (s *QueueSuite) TestSecondArrivalPairsWithWaiter() {
	_, _ = s.queue.Join("a")

	match, ok := s.queue.Join("b")
	s.True(ok)
	s.Equal(Match{PlayerOne: "a", PlayerTwo: "b"}, match)

	_, waiting := s.queue.Waiting()
	s.False(waiting)
}

func (s *QueueSuite) TestThirdArrivalBecomesSoleWaiter() {
	_, _ = s.queue.Join("a")
	_, _ = s.queue.Join("b")

	_, ok := s.queue.Join("c")
	s.False(ok)

	waiting, _ := s.queue.Waiting()
	s.Equal(model.ConnectionID("c"), waiting)
}

func (s *QueueSuite) TestRejoinDoesNotSelfPair() {
	_, _ = s.queue.Join("a")

	_, ok := s.queue.Join("a")
	s.False(ok)

	waiting, _ := s.queue.Waiting()
	s.Equal(model.ConnectionID("a"), waiting)
}

func (s *QueueSuite) TestStaleWaiterIsReplaced() {
	_, _ = s.queue.Join("a")
	s.presence.drop("a")

	_, ok := s.queue.Join("b")
	s.False(ok)

	waiting, _ := s.queue.Waiting()
	s.Equal(model.ConnectionID("b"), waiting)
}

func (s *QueueSuite) TestLeave() {
	_, _ = s.queue.Join("a")

	s.False(s.queue.Leave("b"))
	s.True(s.queue.Leave("a"))
	s.False(s.queue.Leave("a"))

	_, waiting := s.queue.Waiting()
	s.False(waiting)
}

func (s *QueueSuite) TestWaiterIsNeverPairedTwice() {
	ids := make([]model.ConnectionID, 100)
	for i := range ids {
		ids[i] = model.ConnectionID(string(rune('A'+i%26)) + string(rune('a'+i/26)))
		s.presence.live[ids[i]] = true
	}

	var (
		mu      sync.Mutex
		matched = make(map[model.ConnectionID]int)
		wg      sync.WaitGroup
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id model.ConnectionID) {
			defer wg.Done()
			if m, ok := s.queue.Join(id); ok {
				mu.Lock()
				matched[m.PlayerOne]++
				matched[m.PlayerTwo]++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	s.Len(matched, len(ids))
	for id, n := range matched {
		s.Equal(1, n, "connection %s paired %d times", id, n)
	}
}
