// Package v1 exposes the HTTP surface: the Twilio webhook, outbound
// sends, and the knowledge-base and conversation management endpoints.
package v1

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/answerdesk/answerdesk/server/profile"
	"github.com/answerdesk/answerdesk/store"
)

// Responder produces a reply to an inbound conversation message.
type Responder interface {
	Handle(ctx context.Context, conversationID, text string) string
}

// KnowledgeBase is the admin view of the retrieval index.
type KnowledgeBase interface {
	Count() int
	Clear(ctx context.Context) error
}

// Messenger delivers outbound WhatsApp messages.
type Messenger interface {
	SendMessage(ctx context.Context, to, body string) error
}

type APIV1Service struct {
	Profile   *profile.Profile
	Store     *store.Store
	Responder Responder
	Knowledge KnowledgeBase
	Messenger Messenger
}

func NewAPIV1Service(p *profile.Profile, st *store.Store, r Responder, kb KnowledgeBase, m Messenger) *APIV1Service {
	return &APIV1Service{
		Profile:   p,
		Store:     st,
		Responder: r,
		Knowledge: kb,
		Messenger: m,
	}
}

func (s *APIV1Service) Register(e *echo.Echo) {
	e.GET("/", s.root)
	e.GET("/health", s.health)
	e.POST("/webhook/whatsapp", s.handleWhatsAppWebhook)
	e.POST("/send-message", s.sendMessage)
	e.GET("/knowledge-base/count", s.knowledgeBaseCount)
	e.POST("/knowledge-base/clear", s.knowledgeBaseClear)
	e.GET("/conversation/:number", s.getConversation)
	e.POST("/conversation/clear/:number", s.clearConversation)
}

func (s *APIV1Service) root(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "WhatsApp RAG Chatbot API",
		"status":  "running",
	})
}

func (s *APIV1Service) health(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":             "healthy",
		"knowledgeBaseCount": s.Knowledge.Count(),
	})
}
