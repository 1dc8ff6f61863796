package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/aidbridge/aidbridge/internal/money"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"AidBridge"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	Mongo struct {
		URI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
		Database string `envconfig:"MONGO_DATABASE" default:"aidbridge"`
	}

	Horizon struct {
		URL       string        `envconfig:"HORIZON_URL" default:"https://horizon-testnet.stellar.org"`
		Timeout   time.Duration `envconfig:"HORIZON_TIMEOUT" default:"10s"`
		MaxTries  uint          `envconfig:"HORIZON_MAX_TRIES" default:"3"`
		RetryBase time.Duration `envconfig:"HORIZON_RETRY_BASE" default:"200ms"`
		RetryCap  time.Duration `envconfig:"HORIZON_RETRY_CAP" default:"2s"`
	}

	Asset struct {
		Code   string `envconfig:"ASSET_CODE" default:"XLM"`
		Issuer string `envconfig:"ASSET_ISSUER" default:""`
	}

	Reconcile struct {
		MinConfirmations int32 `envconfig:"MIN_CONFIRMATIONS" default:"1"`
	}

	CORS struct {
		Origin string `envconfig:"CORS_ORIGIN" default:"http://localhost:5173"`
	}
}

// PlatformAsset is the single asset the platform accepts donations in.
func (c *Config) PlatformAsset() money.Asset {
	if c.Asset.Issuer == "" {
		return money.Native()
	}

	return money.Asset{Code: c.Asset.Code, Issuer: c.Asset.Issuer}
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
