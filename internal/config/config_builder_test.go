package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_DefaultsFillGaps(t *testing.T) {
	t.Setenv("STORAGE_DB_DRIVER", "sqlite")
	t.Setenv("STORAGE_DB_DSN", "auth.db")

	cfg, err := newConfigBuilder().withEnv().withDefaults().build()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.DB.Driver)
	assert.Equal(t, "auth.db", cfg.Storage.DB.DSN)
	assert.EqualValues(t, 3600, cfg.App.TokenLifetime, "token lifetime default")
	assert.Equal(t, ":8080", cfg.Server.HTTPAddress, "address default")
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout, "shutdown timeout default")
}

func TestBuild_EnvBeatsDefaults(t *testing.T) {
	t.Setenv("STORAGE_DB_DRIVER", "postgres")
	t.Setenv("STORAGE_DB_DSN", "postgres://localhost/auth")
	t.Setenv("APP_TOKEN_LIFETIME", "60")
	t.Setenv("SERVER_ADDRESS", ":9090")

	cfg, err := newConfigBuilder().withEnv().withDefaults().build()
	require.NoError(t, err)

	assert.EqualValues(t, 60, cfg.App.TokenLifetime)
	assert.Equal(t, ":9090", cfg.Server.HTTPAddress)
}

func TestBuild_JSONLayer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"app": {"token_lifetime": 120},
		"storage": {"db": {"driver": "sqlite", "dsn": "from-json.db"}},
		"server": {"http_address": ":7070", "shutdown_timeout": "2s"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	t.Setenv("CONFIG", path)

	cfg, err := newConfigBuilder().withEnv().withJSON().withDefaults().build()
	require.NoError(t, err)

	assert.Equal(t, "from-json.db", cfg.Storage.DB.DSN)
	assert.EqualValues(t, 120, cfg.App.TokenLifetime)
	assert.Equal(t, ":7070", cfg.Server.HTTPAddress)
	assert.Equal(t, 2*time.Second, cfg.Server.ShutdownTimeout)
}

func TestBuild_EnvBeatsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"storage": {"db": {"driver": "sqlite", "dsn": "from-json.db"}}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	t.Setenv("CONFIG", path)
	t.Setenv("STORAGE_DB_DSN", "from-env.db")
	t.Setenv("STORAGE_DB_DRIVER", "sqlite")

	cfg, err := newConfigBuilder().withEnv().withJSON().withDefaults().build()
	require.NoError(t, err)

	assert.Equal(t, "from-env.db", cfg.Storage.DB.DSN)
}

func TestBuild_MissingDSN(t *testing.T) {
	t.Setenv("STORAGE_DB_DRIVER", "sqlite")

	_, err := newConfigBuilder().withEnv().withDefaults().build()
	require.ErrorIs(t, err, ErrInvalidStorageConfigs)
}

func TestBuild_UnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DB_DRIVER", "oracle")
	t.Setenv("STORAGE_DB_DSN", "dsn")

	_, err := newConfigBuilder().withEnv().withDefaults().build()
	require.ErrorIs(t, err, ErrInvalidStorageConfigs)
}

func TestBuild_BadJSONFile(t *testing.T) {
	t.Setenv("CONFIG", filepath.Join(t.TempDir(), "does-not-exist.json"))

	_, err := newConfigBuilder().withEnv().withJSON().withDefaults().build()
	require.Error(t, err)
}

func TestParseFlags(t *testing.T) {
	cfg := parseFlags([]string{
		"-a", ":6060",
		"-driver", "postgres",
		"-d", "postgres://localhost/auth",
		"-l", "900",
		"-c", "cfg.json",
	})

	assert.Equal(t, ":6060", cfg.Server.HTTPAddress)
	assert.Equal(t, "postgres", cfg.Storage.DB.Driver)
	assert.Equal(t, "postgres://localhost/auth", cfg.Storage.DB.DSN)
	assert.EqualValues(t, 900, cfg.App.TokenLifetime)
	assert.Equal(t, "cfg.json", cfg.JSONFilePath)
}
