// Package llm implements the answer service on top of an OpenAI compatible
// chat completion API (Groq or OpenAI).
package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/common"
)

// Supported providers.
const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
)

const (
	groqBaseURL  = "https://api.groq.com/openai/v1"
	groqModel    = "llama3-8b-8192"
	openAIModel  = "gpt-3.5-turbo"
	groqKeyEnv   = "GROQ_API_KEY"
	openAIKeyEnv = "OPENAI_API_KEY"
)

// Config configures the answer client.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	MaxRetries  int
	RetryDelay  time.Duration
	RateLimit   int
	Temperature float32
}

// Resolve fills provider, key, model and base URL. An explicit provider
// takes its key from cfg.APIKey or its environment variable; otherwise Groq
// is preferred when GROQ_API_KEY is set, then OpenAI.
func Resolve(cfg Config, getenv func(string) string) (Config, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))

	if provider == "" {
		switch {
		case cfg.APIKey != "":
			provider = ProviderOpenAI
		case getenv(groqKeyEnv) != "":
			provider = ProviderGroq
		case getenv(openAIKeyEnv) != "":
			provider = ProviderOpenAI
		default:
			return cfg, fmt.Errorf("%w: set %s or %s", common.ErrMissingConfig, groqKeyEnv, openAIKeyEnv)
		}
	}

	switch provider {
	case ProviderGroq:
		if cfg.APIKey == "" {
			cfg.APIKey = getenv(groqKeyEnv)
		}
		if cfg.Model == "" {
			cfg.Model = groqModel
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = groqBaseURL
		}
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			cfg.APIKey = getenv(openAIKeyEnv)
		}
		if cfg.Model == "" {
			cfg.Model = openAIModel
		}
	default:
		return cfg, fmt.Errorf("%w: unsupported provider %q", common.ErrInvalidConfig, cfg.Provider)
	}

	if cfg.APIKey == "" {
		return cfg, fmt.Errorf("%w: API key for %s", common.ErrMissingConfig, provider)
	}

	cfg.Provider = provider
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	return cfg, nil
}
