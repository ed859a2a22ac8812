package llm

import (
	"context"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAI generates replies through the chat-completions API, where the
// preamble travels as the leading system-role message of the turn list.
type OpenAI struct {
	client      *openai.LLM
	maxTokens   int
	temperature float64
}

// NewOpenAI creates an OpenAI-backed generator.
func NewOpenAI(apiKey, model string, maxTokens int, temperature float64) (*OpenAI, error) {
	client, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, errors.Wrap(err, "init openai client")
	}
	return &OpenAI{client: client, maxTokens: maxTokens, temperature: temperature}, nil
}

func (g *OpenAI) Generate(ctx context.Context, system string, msgs []Message) (string, error) {
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
		return "", errors.Wrap(err, "openai generate")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty response")
	}
	return resp.Choices[0].Content, nil
}

func chatMessageType(role Role) llms.ChatMessageType {
	if role == RoleAssistant {
		return llms.ChatMessageTypeAI
	}
	return llms.ChatMessageTypeHuman
}
