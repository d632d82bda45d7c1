package config

import (
	"fmt"
	"time"
)

// defaultConfig is the lowest-precedence configuration layer.
func defaultConfig() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			TokenLifetime: 3600,
		},
		Server: Server{
			HTTPAddress:     ":8080",
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

// validate checks the merged configuration for completeness. The database
// settings have no usable defaults and must be supplied by one of the layers.
func (c *StructuredConfig) validate() error {
	switch c.Storage.DB.Driver {
	case "postgres", "pgx", "sqlite", "sqlite3":
	case "":
		return fmt.Errorf("%w: driver is not set", ErrInvalidStorageConfigs)
	default:
		return fmt.Errorf("%w: unknown driver %q", ErrInvalidStorageConfigs, c.Storage.DB.Driver)
	}

	if c.Storage.DB.DSN == "" {
		return fmt.Errorf("%w: DSN is not set", ErrInvalidStorageConfigs)
	}

	if c.App.TokenLifetime <= 0 {
		return fmt.Errorf("%w: token lifetime must be positive", ErrInvalidAppConfigs)
	}

	if c.Server.HTTPAddress == "" {
		return fmt.Errorf("%w: HTTP address is not set", ErrInvalidServerConfigs)
	}

	return nil
}
