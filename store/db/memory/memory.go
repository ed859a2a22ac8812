// Package memory is the process-local history driver. State is scoped to
// the process lifetime and lost on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/answerdesk/answerdesk/store"
)

// DB keeps conversation turns in a mutex-guarded map.
type DB struct {
	mu    sync.Mutex
	turns map[string][]*store.Turn
	ttl   time.Duration
}

// NewDB creates an in-memory driver. ttl is the optional per-turn
// expiry; 0 disables it, which is the default for this backend.
func NewDB(ttl time.Duration) *DB {
	return &DB{
		turns: make(map[string][]*store.Turn),
		ttl:   ttl,
	}
}

func (d *DB) CreateTurn(_ context.Context, create *store.Turn) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.dropExpiredLocked(create.ConversationID)
	d.turns[create.ConversationID] = append(d.turns[create.ConversationID], create)
	return nil
}

func (d *DB) ListTurns(_ context.Context, find *store.FindTurn) ([]*store.Turn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.dropExpiredLocked(find.ConversationID)
	turns := d.turns[find.ConversationID]
	if find.Limit > 0 && len(turns) > find.Limit {
		turns = turns[len(turns)-find.Limit:]
	}
	out := make([]*store.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (d *DB) TrimTurns(_ context.Context, conversationID string, keep int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	turns := d.turns[conversationID]
	if keep > 0 && len(turns) > keep {
		d.turns[conversationID] = turns[len(turns)-keep:]
	}
	return nil
}

func (d *DB) DeleteTurns(_ context.Context, conversationID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.turns, conversationID)
	return nil
}

func (d *DB) Close() error {
	return nil
}

// dropExpiredLocked removes turns older than the configured ttl. Caller
// holds d.mu.
func (d *DB) dropExpiredLocked(conversationID string) {
	if d.ttl <= 0 {
		return
	}
	cutoff := time.Now().Add(-d.ttl).Unix()
	turns := d.turns[conversationID]
	kept := turns[:0]
	for _, t := range turns {
		if t.CreatedTs >= cutoff {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(d.turns, conversationID)
		return
	}
	d.turns[conversationID] = kept
}
