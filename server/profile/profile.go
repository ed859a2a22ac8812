// Package profile holds the runtime configuration, loaded from the
// environment (and an optional .env file).
package profile

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Profile is the application configuration.
type Profile struct {
	Port    int
	DataDir string

	// Twilio WhatsApp transport.
	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioWhatsAppFrom string
	WebhookURL         string
	ValidateSignatures bool

	// Generation backend.
	LLMProvider     string
	OpenAIAPIKey    string
	OpenAIModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	MaxTokens       int
	Temperature     float64

	// Embeddings (OpenAI-compatible endpoint).
	EmbeddingBaseURL string
	EmbeddingModel   string

	// Conversation history.
	MaxHistory     int
	HistoryBackend string
	HistoryDSN     string
	HistoryTTL     time.Duration

	// Knowledge base ingestion.
	KnowledgeBasePath string
	ChunkSize         int
	ChunkOverlap      int
}

// Load reads the profile from the environment. A .env file in the
// working directory is honored when present.
func Load() (*Profile, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetDefault("PORT", 8000)
	viper.SetDefault("DATA_DIR", "./data")
	viper.SetDefault("TWILIO_WHATSAPP_NUMBER", "whatsapp:+14155238886")
	viper.SetDefault("VALIDATE_TWILIO_SIGNATURE", false)
	viper.SetDefault("LLM_PROVIDER", "openai")
	viper.SetDefault("OPENAI_MODEL", "gpt-4-turbo-preview")
	viper.SetDefault("ANTHROPIC_MODEL", "claude-3-sonnet-20240229")
	viper.SetDefault("MAX_TOKENS", 1000)
	viper.SetDefault("TEMPERATURE", 0.7)
	viper.SetDefault("EMBEDDING_BASE_URL", "https://api.openai.com/v1")
	viper.SetDefault("EMBEDDING_MODEL", "text-embedding-3-small")
	viper.SetDefault("MAX_CONVERSATION_HISTORY", 10)
	viper.SetDefault("HISTORY_BACKEND", "memory")
	viper.SetDefault("KNOWLEDGE_BASE_PATH", "./knowledge_base")
	viper.SetDefault("CHUNK_SIZE", 1000)
	viper.SetDefault("CHUNK_OVERLAP", 200)

	p := &Profile{
		Port:    viper.GetInt("PORT"),
		DataDir: viper.GetString("DATA_DIR"),

		TwilioAccountSID:   viper.GetString("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:    viper.GetString("TWILIO_AUTH_TOKEN"),
		TwilioWhatsAppFrom: viper.GetString("TWILIO_WHATSAPP_NUMBER"),
		WebhookURL:         viper.GetString("WEBHOOK_URL"),
		ValidateSignatures: viper.GetBool("VALIDATE_TWILIO_SIGNATURE"),

		LLMProvider:     viper.GetString("LLM_PROVIDER"),
		OpenAIAPIKey:    viper.GetString("OPENAI_API_KEY"),
		OpenAIModel:     viper.GetString("OPENAI_MODEL"),
		AnthropicAPIKey: viper.GetString("ANTHROPIC_API_KEY"),
		AnthropicModel:  viper.GetString("ANTHROPIC_MODEL"),
		MaxTokens:       viper.GetInt("MAX_TOKENS"),
		Temperature:     viper.GetFloat64("TEMPERATURE"),

		EmbeddingBaseURL: viper.GetString("EMBEDDING_BASE_URL"),
		EmbeddingModel:   viper.GetString("EMBEDDING_MODEL"),

		MaxHistory:     viper.GetInt("MAX_CONVERSATION_HISTORY"),
		HistoryBackend: viper.GetString("HISTORY_BACKEND"),
		HistoryDSN:     viper.GetString("HISTORY_DSN"),

		KnowledgeBasePath: viper.GetString("KNOWLEDGE_BASE_PATH"),
		ChunkSize:         viper.GetInt("CHUNK_SIZE"),
		ChunkOverlap:      viper.GetInt("CHUNK_OVERLAP"),
	}

	// History expiry is a uniform option: database backends default to
	// 24h, the in-memory backend to none. An explicit HISTORY_TTL (0
	// disables) overrides either default.
	if viper.IsSet("HISTORY_TTL") {
		p.HistoryTTL = viper.GetDuration("HISTORY_TTL")
	} else if p.HistoryBackend != "memory" {
		p.HistoryTTL = 24 * time.Hour
	}

	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Profile) validate() error {
	switch p.LLMProvider {
	case "openai", "anthropic":
	default:
		return errors.Errorf("unsupported LLM provider: %q", p.LLMProvider)
	}
	switch p.HistoryBackend {
	case "memory", "sqlite", "mysql", "postgres":
	default:
		return errors.Errorf("unsupported history backend: %q", p.HistoryBackend)
	}
	if p.HistoryBackend == "mysql" || p.HistoryBackend == "postgres" {
		if p.HistoryDSN == "" {
			return errors.Errorf("HISTORY_DSN is required for the %s backend", p.HistoryBackend)
		}
	}
	if p.ChunkSize <= 0 {
		return errors.New("CHUNK_SIZE must be positive")
	}
	if p.ChunkOverlap < 0 || p.ChunkOverlap >= p.ChunkSize {
		return errors.New("CHUNK_OVERLAP must be smaller than CHUNK_SIZE")
	}
	return nil
}

// ValidateServe checks the extra requirements of running the webhook
// server, which the ingestion CLI does not need.
func (p *Profile) ValidateServe() error {
	if p.TwilioAccountSID == "" || p.TwilioAuthToken == "" {
		return errors.New("TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN must be set")
	}
	switch p.LLMProvider {
	case "openai":
		if p.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY must be set for the openai provider")
		}
	case "anthropic":
		if p.AnthropicAPIKey == "" {
			return errors.New("ANTHROPIC_API_KEY must be set for the anthropic provider")
		}
	}
	return nil
}
