// Package chat orchestrates the retrieval-then-generate pipeline behind
// every inbound message.
package chat

import (
	"context"
	"log/slog"

	"github.com/answerdesk/answerdesk/plugin/llm"
	"github.com/answerdesk/answerdesk/store"
)

// Apology is the fixed user-facing reply when generation fails. Raw
// backend errors never reach the user.
const Apology = "I apologize, but I'm having trouble processing your message right now. Please try again later."

// defaultTopK is the number of knowledge-base snippets retrieved per
// message.
const defaultTopK = 3

const systemPreamble = `You are a helpful AI assistant for a business. Your role is to answer customer questions accurately and professionally based on the provided knowledge base.

Guidelines:
- Be friendly, professional, and concise
- Use the knowledge base context to answer questions accurately
- If you don't know something or it's not in the knowledge base, admit it politely
- Stay on topic and relevant to the business
- Keep responses brief and to the point (WhatsApp messages should be concise)
- If a customer needs human assistance, politely suggest they wait for a human representative`

// KnowledgeBase retrieves context snippets relevant to a query.
type KnowledgeBase interface {
	Query(ctx context.Context, text string, k int) (string, error)
}

// Responder handles one inbound message end to end: history in,
// retrieval, generation, history out.
type Responder struct {
	store *store.Store
	kb    KnowledgeBase
	gen   llm.Generator
	topK  int
}

// NewResponder wires the orchestrator from its injected collaborators.
func NewResponder(st *store.Store, kb KnowledgeBase, gen llm.Generator) *Responder {
	return &Responder{store: st, kb: kb, gen: gen, topK: defaultTopK}
}

// Handle generates a reply to an inbound message. It never fails from
// the caller's perspective: backend errors degrade to the fixed apology,
// and a knowledge-base error degrades to an empty context rather than
// aborting the exchange.
func (r *Responder) Handle(ctx context.Context, conversationID, text string) string {
	log := slog.With("conversation", conversationID)

	history, err := r.store.ListTurns(ctx, conversationID, r.store.MaxHistory())
	if err != nil {
		log.Warn("failed to load history, replying without it", "err", err)
		history = nil
	}

	kbContext, err := r.kb.Query(ctx, text, r.topK)
	if err != nil {
		log.Warn("knowledge base query failed, replying without context", "err", err)
		kbContext = ""
	}

	msgs := make([]llm.Message, 0, len(history)+1)
	for _, turn := range history {
		msgs = append(msgs, llm.Message{Role: llm.Role(turn.Role), Content: turn.Content})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: text})

	reply, err := r.gen.Generate(ctx, systemPrompt(kbContext), msgs)
	if err != nil {
		log.Error("generation failed", "err", err)
		return Apology
	}

	// Record the exchange only after a successful generation; a failed
	// exchange leaves the conversation untouched.
	if err := r.store.AddTurn(ctx, conversationID, store.RoleUser, text); err != nil {
		log.Error("failed to record user turn", "err", err)
	}
	if err := r.store.AddTurn(ctx, conversationID, store.RoleAssistant, reply); err != nil {
		log.Error("failed to record assistant turn", "err", err)
	}

	return reply
}

// systemPrompt appends the retrieved context to the behavior preamble
// when there is any.
func systemPrompt(kbContext string) string {
	if kbContext == "" {
		return systemPreamble
	}
	return systemPreamble + "\n\nKnowledge Base Context:\n" + kbContext
}
