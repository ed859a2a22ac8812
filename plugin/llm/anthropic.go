package llm

import (
	"context"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
)

// Anthropic generates replies through the Messages API. The preamble is
// passed as system-typed content that the client lifts into the separate
// system field; the turn list itself carries only user and assistant
// roles.
type Anthropic struct {
	client      *anthropic.LLM
	maxTokens   int
	temperature float64
}

// NewAnthropic creates an Anthropic-backed generator.
func NewAnthropic(apiKey, model string, maxTokens int, temperature float64) (*Anthropic, error) {
	client, err := anthropic.New(
		anthropic.WithToken(apiKey),
		anthropic.WithModel(model),
	)
	if err != nil {
		return nil, errors.Wrap(err, "init anthropic client")
	}
	return &Anthropic{client: client, maxTokens: maxTokens, temperature: temperature}, nil
}

func (g *Anthropic) Generate(ctx context.Context, system string, msgs []Message) (string, error) {
	content := make([]llms.MessageContent, 0, len(msgs)+1)
	content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, system))
	for _, m := range msgs {
		content = append(content, llms.TextParts(chatMessageType(m.Role), m.Content))
	}

	resp, err := g.client.GenerateContent(ctx, content,
		llms.WithMaxTokens(g.maxTokens),
		llms.WithTemperature(g.temperature),
	)
	if err != nil {
		return "", errors.Wrap(err, "anthropic generate")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("anthropic: empty response")
	}
	return resp.Choices[0].Content, nil
}
