// Package llm provides provider-agnostic access to hosted language
// models for reply generation.
package llm

import "context"

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation handed to the model.
type Message struct {
	Role    Role
	Content string
}

// Generator produces a reply from a behavior preamble and an ordered
// turn sequence. Max output tokens and sampling temperature are fixed at
// construction; callers never branch on provider identity.
type Generator interface {
	Generate(ctx context.Context, system string, msgs []Message) (string, error)
}
