// Package matchmaking owns the per-game-kind waiting pools. A participant
// sits in at most one queue; insertion order is match-formation order.
package matchmaking

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cashplay-space/cashplay/internal/engine"
)

var (
	ErrUnknownGameKind = errors.New("unknown game kind")
	ErrAlreadyQueued   = errors.New("participant already queued")
)

type Queues struct {
	mu     sync.Mutex
	queues map[engine.Kind][]string
}

// NewQueues creates one empty FIFO pool per kind. Enqueueing for any other
// kind is rejected.
func NewQueues(kinds ...engine.Kind) *Queues {
	queues := make(map[engine.Kind][]string, len(kinds))
	for _, kind := range kinds {
		queues[kind] = nil
	}
	return &Queues{queues: queues}
}

// Enqueue appends the participant to the kind's pool and returns the
// resulting queue length.
func (q *Queues) Enqueue(kind engine.Kind, playerID string) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	queue, ok := q.queues[kind]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownGameKind, kind)
	}
	for _, pool := range q.queues {
		for _, id := range pool {
			if id == playerID {
				return 0, fmt.Errorf("%w: %s", ErrAlreadyQueued, playerID)
			}
		}
	}
	q.queues[kind] = append(queue, playerID)
	return len(q.queues[kind]), nil
}

// Waiting returns a snapshot of the kind's pool in queue order.
func (q *Queues) Waiting(kind engine.Kind) []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.queues[kind]...)
}

// FormMatch pops the front `required` participants of the kind's pool and
// runs collect on the batch while still holding the pool's lock, so no
// second batch can be formed from the same queue until the fund check
// resolves. A collect failure returns the whole batch to the FRONT of the
// queue in its original relative order.
//
// The returned bool reports whether a match was formed.
func (q *Queues) FormMatch(kind engine.Kind, required int, collect func(playerIDs []string) error) ([]string, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	queue, ok := q.queues[kind]
	if !ok {
		return nil, false, fmt.Errorf("%w: %q", ErrUnknownGameKind, kind)
	}
	if len(queue) < required {
		return nil, false, nil
	}

	batch := append([]string(nil), queue[:required]...)
	q.queues[kind] = append([]string(nil), queue[required:]...)

	if err := collect(batch); err != nil {
		q.queues[kind] = append(append([]string(nil), batch...), q.queues[kind]...)
		return nil, false, err
	}
	return batch, true, nil
}

// RemoveAll removes the participant from every pool and returns the kinds
// that were touched. Used on disconnect.
func (q *Queues) RemoveAll(playerID string) []engine.Kind {
	q.mu.Lock()
	defer q.mu.Unlock()
	var touched []engine.Kind
	for kind, queue := range q.queues {
		for i, id := range queue {
			if id == playerID {
				q.queues[kind] = append(queue[:i], queue[i+1:]...)
				touched = append(touched, kind)
				break
			}
		}
	}
	return touched
}
