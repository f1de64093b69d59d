package config

import (
	"os"
	"strconv"

	"github.com/DavidSilveraGabriel/MewAI/internal/core/domain"
)

// DefaultTemperature is used when MEWAI_TEMPERATURE is unset or invalid.
const DefaultTemperature = 0.7

// LLMConfig holds the language-model client configuration. Model and APIKey
// are required; validation fails fast at construction, not at first use.
type LLMConfig struct {
	Model       string
	APIKey      string
	Temperature float64
}

// LLMConfigFromEnv reads MODEL, GEMINI_API_KEY and MEWAI_TEMPERATURE.
func LLMConfigFromEnv() LLMConfig {
	cfg := LLMConfig{
		Model:       os.Getenv("MODEL"),
		APIKey:      os.Getenv("GEMINI_API_KEY"),
		Temperature: DefaultTemperature,
	}
	if raw := os.Getenv("MEWAI_TEMPERATURE"); raw != "" {
		if t, err := strconv.ParseFloat(raw, 64); err == nil && t >= 0 && t <= 2 {
			cfg.Temperature = t
		}
	}
	return cfg
}

// Validate checks the required fields.
func (c LLMConfig) Validate() error {
	if c.Model == "" {
		return domain.NewConfigError("MODEL environment variable is not set")
	}
	if c.APIKey == "" {
		return domain.NewConfigError("GEMINI_API_KEY environment variable is not set")
	}
	return nil
}
