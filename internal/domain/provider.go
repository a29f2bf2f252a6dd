package domain

import "os"

type Provider string

const (
	ProviderZAI     Provider = "zai"
	ProviderMiniMax Provider = "minimax"
)

// Providers lists the closed set of supported providers in display order.
func Providers() []Provider {
	return []Provider{ProviderZAI, ProviderMiniMax}
}

func (p Provider) Valid() bool {
	switch p {
	case ProviderZAI, ProviderMiniMax:
		return true
	default:
		return false
	}
}

func (p Provider) DisplayName() string {
	switch p {
	case ProviderZAI:
		return "Z.AI (GLM)"
	case ProviderMiniMax:
		return "MiniMax"
	default:
		return string(p)
	}
}

// ModelTier names the Anthropic-side model aliases that providers map onto
// their own model families.
type ModelTier string

const (
	TierOpus   ModelTier = "opus"
	TierSonnet ModelTier = "sonnet"
	TierHaiku  ModelTier = "haiku"
)

// ProviderDefaults carries the static per-provider configuration: base URL,
// default model and the model catalog. API key and base URL may be overridden
// through environment variables.
type ProviderDefaults struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Models       []string
}

func (p Provider) Defaults() ProviderDefaults {
	switch p {
	case ProviderZAI:
		return ProviderDefaults{
			APIKey:       os.Getenv("ZAI_API_KEY"),
			BaseURL:      envOr("ZAI_BASE_URL", "https://api.z.ai/api/anthropic"),
			DefaultModel: "GLM-4.7",
			Models:       []string{"GLM-4.7", "GLM-4.5-Air"},
		}
	case ProviderMiniMax:
		return ProviderDefaults{
			APIKey:       os.Getenv("MINIMAX_API_KEY"),
			BaseURL:      envOr("MINIMAX_BASE_URL", "https://api.minimax.io/anthropic"),
			DefaultModel: "MiniMax-M2.1",
			Models:       []string{"MiniMax-M2.1", "MiniMax-M2"},
		}
	default:
		return ProviderDefaults{}
	}
}

// ModelFor maps an Anthropic model tier to the provider's equivalent model.
func (p Provider) ModelFor(tier ModelTier) string {
	switch p {
	case ProviderZAI:
		if tier == TierHaiku {
			return "GLM-4.5-Air"
		}
		return "GLM-4.7"
	case ProviderMiniMax:
		if tier == TierHaiku {
			return "MiniMax-M2"
		}
		return "MiniMax-M2.1"
	default:
		return ""
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
