package config

import (
	"github.com/caarlos0/env/v11"
)

// Secrets holds credentials read from the environment (after a .env load).
// The API key is checked here first; interactive entry is the fallback.
type Secrets struct {
	GoogleAPIKey string `env:"GOOGLE_API_KEY"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:""`
}

// LoadSecrets parses credentials from the environment.
func LoadSecrets() (*Secrets, error) {
	var s Secrets
	if err := env.Parse(&s); err != nil {
		return nil, err
	}
	return &s, nil
}
