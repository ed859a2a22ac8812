// Package store keeps per-conversation history with bounded retention.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Driver is the storage backend for conversation turns. Implementations
// live under store/db and must serialize mutations per conversation id.
type Driver interface {
	CreateTurn(ctx context.Context, create *Turn) error
	ListTurns(ctx context.Context, find *FindTurn) ([]*Turn, error)
	// TrimTurns drops the oldest turns so that at most keep remain.
	TrimTurns(ctx context.Context, conversationID string, keep int) error
	// DeleteTurns removes the whole conversation. Deleting an absent
	// conversation is a no-op.
	DeleteTurns(ctx context.Context, conversationID string) error
	Close() error
}

// Store wraps a Driver and enforces the retention cap: a conversation
// holds at most 2*maxHistory turns (user+assistant pairs), oldest first
// out.
type Store struct {
	driver     Driver
	maxHistory int
}

// New creates a Store over the given driver. maxHistory is the number of
// exchange pairs kept per conversation.
func New(driver Driver, maxHistory int) *Store {
	if maxHistory <= 0 {
		maxHistory = 10
	}
	return &Store{driver: driver, maxHistory: maxHistory}
}

// MaxHistory returns the configured number of retained exchange pairs.
func (s *Store) MaxHistory() int {
	return s.maxHistory
}

// AddTurn appends a turn to the conversation and truncates it to the
// most recent 2*maxHistory turns.
func (s *Store) AddTurn(ctx context.Context, conversationID string, role Role, content string) error {
	turn := &Turn{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedTs:      time.Now().Unix(),
	}
	if err := s.driver.CreateTurn(ctx, turn); err != nil {
		return err
	}
	return s.driver.TrimTurns(ctx, conversationID, s.maxHistory*2)
}

// ListTurns returns the conversation in chronological order, or only the
// most recent limit turns when limit > 0. An unknown conversation id
// yields an empty slice, not an error.
func (s *Store) ListTurns(ctx context.Context, conversationID string, limit int) ([]*Turn, error) {
	return s.driver.ListTurns(ctx, &FindTurn{ConversationID: conversationID, Limit: limit})
}

// ClearTurns removes the conversation entirely. Idempotent.
func (s *Store) ClearTurns(ctx context.Context, conversationID string) error {
	return s.driver.DeleteTurns(ctx, conversationID)
}

// Close releases the underlying driver.
func (s *Store) Close() error {
	return s.driver.Close()
}
