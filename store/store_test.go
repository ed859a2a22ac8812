package store_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/answerdesk/answerdesk/store"
	"github.com/answerdesk/answerdesk/store/db/memory"
)

func newTestStore(maxHistory int) *store.Store {
	return store.New(memory.NewDB(0), maxHistory)
}

func TestAddAndListTurns(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(10)

	require.NoError(t, s.AddTurn(ctx, "whatsapp:+15550001111", store.RoleUser, "hi"))
	require.NoError(t, s.AddTurn(ctx, "whatsapp:+15550001111", store.RoleAssistant, "hello!"))

	turns, err := s.ListTurns(ctx, "whatsapp:+15550001111", 0)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, store.RoleUser, turns[0].Role)
	assert.Equal(t, "hi", turns[0].Content)
	assert.Equal(t, store.RoleAssistant, turns[1].Role)
	assert.NotEmpty(t, turns[0].ID)
}

func TestHistoryBounding(t *testing.T) {
	ctx := context.Background()
	const maxHistory = 3
	s := newTestStore(maxHistory)

	total := maxHistory*2 + 5
	for i := 0; i < total; i++ {
		role := store.RoleUser
		if i%2 == 1 {
			role = store.RoleAssistant
		}
		require.NoError(t, s.AddTurn(ctx, "conv", role, fmt.Sprintf("msg-%d", i)))
	}

	turns, err := s.ListTurns(ctx, "conv", 0)
	require.NoError(t, err)
	require.Len(t, turns, maxHistory*2)

	// The survivors are the most recent turns, still in original order.
	for i, turn := range turns {
		assert.Equal(t, fmt.Sprintf("msg-%d", total-maxHistory*2+i), turn.Content)
	}
}

func TestListTurnsLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(10)

	for i := 0; i < 6; i++ {
		require.NoError(t, s.AddTurn(ctx, "conv", store.RoleUser, fmt.Sprintf("msg-%d", i)))
	}

	turns, err := s.ListTurns(ctx, "conv", 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "msg-4", turns[0].Content)
	assert.Equal(t, "msg-5", turns[1].Content)
}

func TestListTurnsUnknownConversation(t *testing.T) {
	turns, err := newTestStore(10).ListTurns(context.Background(), "nobody", 0)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestClearTurns(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(10)

	require.NoError(t, s.AddTurn(ctx, "conv", store.RoleUser, "hi"))
	require.NoError(t, s.ClearTurns(ctx, "conv"))

	turns, err := s.ListTurns(ctx, "conv", 0)
	require.NoError(t, err)
	assert.Empty(t, turns)

	// Clearing an already-absent conversation is a no-op.
	require.NoError(t, s.ClearTurns(ctx, "conv"))
}

func TestConversationsAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(10)

	require.NoError(t, s.AddTurn(ctx, "a", store.RoleUser, "from a"))
	require.NoError(t, s.AddTurn(ctx, "b", store.RoleUser, "from b"))
	require.NoError(t, s.ClearTurns(ctx, "a"))

	turns, err := s.ListTurns(ctx, "b", 0)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "from b", turns[0].Content)
}
