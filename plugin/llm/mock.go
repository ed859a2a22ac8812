package llm

import (
	"context"
	"fmt"
)

// Mock is a canned generator for tests and local development without API
// keys.
type Mock struct {
	// Reply overrides the echoed default when non-empty.
	Reply string
	// Err, when set, is returned from every Generate call.
	Err error
	// Calls records the inputs of every Generate call.
	Calls []MockCall
}

// MockCall is one recorded Generate invocation.
type MockCall struct {
	System   string
	Messages []Message
}

// NewMock creates a mock generator that echoes the last user message.
func NewMock() *Mock {
	return &Mock{}
}

func (g *Mock) Generate(_ context.Context, system string, msgs []Message) (string, error) {
	g.Calls = append(g.Calls, MockCall{System: system, Messages: msgs})
	if g.Err != nil {
		return "", g.Err
	}
	if g.Reply != "" {
		return g.Reply, nil
	}
	if len(msgs) == 0 {
		return "Hello! How can I help you today?", nil
	}
	return fmt.Sprintf("You said: %q", msgs[len(msgs)-1].Content), nil
}
