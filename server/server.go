// Package server wires the configured backends together and runs the
// HTTP API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/lithammer/shortuuid/v4"
	chromem "github.com/philippgille/chromem-go"
	"github.com/pkg/errors"

	"github.com/answerdesk/answerdesk/chat"
	"github.com/answerdesk/answerdesk/plugin/llm"
	"github.com/answerdesk/answerdesk/plugin/twilio"
	"github.com/answerdesk/answerdesk/plugin/vectorstore"
	"github.com/answerdesk/answerdesk/server/profile"
	apiv1 "github.com/answerdesk/answerdesk/server/router/api/v1"
	"github.com/answerdesk/answerdesk/store"
	"github.com/answerdesk/answerdesk/store/db/memory"
	"github.com/answerdesk/answerdesk/store/db/mysql"
	"github.com/answerdesk/answerdesk/store/db/postgres"
	"github.com/answerdesk/answerdesk/store/db/sqlite"
)

type Server struct {
	Profile   *profile.Profile
	Store     *store.Store
	Knowledge *vectorstore.Store

	echoServer *echo.Echo
	httpServer *http.Server
}

// NewServer builds the full service: history store, knowledge base,
// generator, Twilio client, and the echo router.
func NewServer(ctx context.Context, p *profile.Profile) (*Server, error) {
	driver, err := newDriver(p)
	if err != nil {
		return nil, errors.Wrap(err, "create history driver")
	}
	st := store.New(driver, p.MaxHistory)

	kb, err := NewKnowledgeBase(p)
	if err != nil {
		return nil, errors.Wrap(err, "open knowledge base")
	}

	gen, err := newGenerator(p)
	if err != nil {
		return nil, errors.Wrap(err, "create generator")
	}

	messenger := twilio.NewClient(p.TwilioAccountSID, p.TwilioAuthToken, p.TwilioWhatsAppFrom)
	responder := chat.NewResponder(st, kb, gen)

	e := echo.New()
	e.Use(requestLogger)
	apiv1.NewAPIV1Service(p, st, responder, kb, messenger).Register(e)

	s := &Server{
		Profile:    p,
		Store:      st,
		Knowledge:  kb,
		echoServer: e,
	}
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", p.Port),
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Start serves HTTP until the context is canceled or the listener
// fails.
func (s *Server) Start(ctx context.Context) error {
	slog.Info("server started",
		"addr", s.httpServer.Addr,
		"provider", s.Profile.LLMProvider,
		"historyBackend", s.Profile.HistoryBackend)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown drains in-flight requests and releases the backends.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shut down http server", "err", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close history store", "err", err)
	}
	slog.Info("server stopped")
}

// NewKnowledgeBase opens the persistent knowledge base configured by
// the profile. The ingestion CLI uses it without the rest of the
// server.
func NewKnowledgeBase(p *profile.Profile) (*vectorstore.Store, error) {
	return vectorstore.New(p.DataDir, embeddingFunc(p))
}

func newDriver(p *profile.Profile) (store.Driver, error) {
	switch p.HistoryBackend {
	case "memory":
		return memory.NewDB(p.HistoryTTL), nil
	case "sqlite":
		dsn := p.HistoryDSN
		if dsn == "" {
			dsn = filepath.Join(p.DataDir, "answerdesk.db")
		}
		return sqlite.NewDB(dsn, p.HistoryTTL)
	case "mysql":
		return mysql.NewDB(p.HistoryDSN, p.HistoryTTL)
	case "postgres":
		return postgres.NewDB(p.HistoryDSN, p.HistoryTTL)
	default:
		return nil, errors.Errorf("unknown history backend: %q", p.HistoryBackend)
	}
}

func newGenerator(p *profile.Profile) (llm.Generator, error) {
	switch p.LLMProvider {
	case "openai":
		return llm.NewOpenAI(p.OpenAIAPIKey, p.OpenAIModel, p.MaxTokens, p.Temperature)
	case "anthropic":
		return llm.NewAnthropic(p.AnthropicAPIKey, p.AnthropicModel, p.MaxTokens, p.Temperature)
	default:
		return nil, errors.Errorf("unknown LLM provider: %q", p.LLMProvider)
	}
}

// embeddingFunc points chromem at the configured OpenAI-compatible
// embeddings endpoint.
func embeddingFunc(p *profile.Profile) chromem.EmbeddingFunc {
	return chromem.NewEmbeddingFuncOpenAICompat(p.EmbeddingBaseURL, p.OpenAIAPIKey, p.EmbeddingModel, nil)
}

// requestLogger tags each request with a short id and logs it on the
// way out.
func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		start := time.Now()
		requestID := shortuuid.New()[:8]

		err := next(c)

		// Response() is a plain http.ResponseWriter; the written status
		// lives on the concrete *echo.Response.
		status := http.StatusOK
		if res, ok := c.Response().(*echo.Response); ok && res.Status != 0 {
			status = res.Status
		}
		if err != nil {
			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				status = httpErr.Code
			} else {
				status = http.StatusInternalServerError
			}
		}
		slog.Info("request",
			"id", requestID,
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"status", status,
			"latency", time.Since(start).String())
		return err
	}
}
