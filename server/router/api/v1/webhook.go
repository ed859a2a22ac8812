package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/answerdesk/answerdesk/plugin/twilio"
)

// handlerApology is returned as TwiML when the webhook handler itself
// fails unexpectedly; the sender never sees a raw error.
const handlerApology = "I apologize, but I'm having trouble processing your message right now. Please try again later or contact our support team."

type sendMessageRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// handleWhatsAppWebhook receives an inbound Twilio message and answers
// with a TwiML document carrying the generated reply. The sender's
// WhatsApp number keys the conversation.
func (s *APIV1Service) handleWhatsAppWebhook(c *echo.Context) error {
	from := c.FormValue("From")
	body := c.FormValue("Body")
	if from == "" || body == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "From and Body are required")
	}

	if s.Profile.ValidateSignatures {
		if !s.validSignature(c) {
			slog.Warn("rejected webhook with bad signature", "from", from)
			return echo.NewHTTPError(http.StatusForbidden, "invalid signature")
		}
	}

	slog.Info("inbound message",
		"from", from,
		"sid", c.FormValue("MessageSid"),
		"profileName", c.FormValue("ProfileName"),
		"chars", len(body))

	reply := s.reply(c, from, body)
	return c.Blob(http.StatusOK, "application/xml", []byte(twilio.Reply(reply)))
}

// reply runs the responder, converting a panic anywhere down the
// pipeline into the generic apology so the webhook always answers with
// valid TwiML.
func (s *APIV1Service) reply(c *echo.Context, from, body string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("webhook handler panicked", "from", from, "panic", r)
			out = handlerApology
		}
	}()
	return s.Responder.Handle(c.Request().Context(), from, body)
}

// validSignature checks X-Twilio-Signature against the public webhook
// URL. WEBHOOK_URL must match the URL Twilio calls; behind a proxy the
// request's own URL is not it.
func (s *APIV1Service) validSignature(c *echo.Context) bool {
	requestURL := s.Profile.WebhookURL
	if requestURL == "" {
		scheme := "http"
		if c.Request().TLS != nil {
			scheme = "https"
		}
		requestURL = scheme + "://" + c.Request().Host + c.Request().URL.RequestURI()
	}
	if err := c.Request().ParseForm(); err != nil {
		return false
	}
	signature := c.Request().Header.Get("X-Twilio-Signature")
	return twilio.ValidateSignature(s.Profile.TwilioAuthToken, requestURL, c.Request().PostForm, signature)
}

// sendMessage pushes a message to a WhatsApp number outside the webhook
// flow.
func (s *APIV1Service) sendMessage(c *echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.To == "" || req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "to and message are required")
	}
	if err := s.Messenger.SendMessage(c.Request().Context(), req.To, req.Message); err != nil {
		slog.Error("outbound send failed", "to", req.To, "err", err)
		return c.JSON(http.StatusBadGateway, map[string]string{
			"status": "failed",
			"detail": "failed to send message",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "sent", "to": req.To})
}
