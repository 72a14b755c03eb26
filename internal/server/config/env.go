package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

const envPrefix = "GOPHAUTH_"

// deploymentEnv holds the unprefixed variables read by existing
// deployments. Unset variables stay nil.
type deploymentEnv struct {
	SecretKey     *string `env:"JWT_SECRET"`
	RedisHost     *string `env:"REDIS_HOST"`
	RedisPort     *string `env:"REDIS_PORT"`
	RedisPassword *string `env:"REDIS_PASS"`
}

// parseEnv overlays values from the environment. The unprefixed
// JWT_SECRET and REDIS_* variables are read first; GOPHAUTH_-prefixed
// variables (e.g. GOPHAUTH_JWT_SECRET, GOPHAUTH_STORE_BACKEND) win over
// them. Unset variables keep the current value.
func parseEnv(config *Config) error {
	var d deploymentEnv
	if err := env.Parse(&d); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	setString(&config.SecretKey, d.SecretKey)
	setString(&config.RedisHost, d.RedisHost)
	setString(&config.RedisPort, d.RedisPort)
	setString(&config.RedisPassword, d.RedisPassword)

	if err := env.ParseWithOptions(config, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
