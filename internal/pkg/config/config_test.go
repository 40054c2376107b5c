package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"message-editor/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fullYAML задает все разделы конфигурации.
const fullYAML = `
server:
  host: "0.0.0.0"
  port: 8081
  shutdown_timeout: 5s
  event_ttl: 1m
platform:
  version: "1.12.2"
storage:
  driver: sqlite
  dsn: "/var/lib/message-editor/edits.db"
cache:
  idle_ttl: 30m
  cleanup_interval: 0s
  key_by_place: false
matching:
  timeout: 100ms
packets:
  click_to_edit: false
  edit_command: "/me edit"
  listeners:
    kick: false
    chat: true
    inventory-item: false
logging:
  level: "debug"
  format: "json"
placeholders:
  server_name: "Lobby"
`

// partialYAML задает только часть значений, остальные берутся по умолчанию.
const partialYAML = `
server:
  port: 9000
storage:
  edits_dir: "/srv/edits"
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)
	return path
}

func TestLoadFromYAML(t *testing.T) {
	t.Run("все разделы", func(t *testing.T) {
		cfg := defaultConfig()
		err := loadFromYAML(createTempConfigFile(t, fullYAML), cfg)
		require.NoError(t, err)

		assert.Equal(t, "0.0.0.0:8081", cfg.Address())
		assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
		assert.Equal(t, time.Minute, cfg.Server.EventTTL)
		assert.Equal(t, DefaultReadTimeout, cfg.Server.ReadTimeout)

		version, err := cfg.PlatformVersion()
		require.NoError(t, err)
		assert.Equal(t, domain.Version{Major: 1, Minor: 12, Patch: 2}, version)

		assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
		assert.Equal(t, "/var/lib/message-editor/edits.db", cfg.Storage.DSN)
		assert.Equal(t, 30*time.Minute, cfg.Cache.IdleTTL)
		assert.Zero(t, cfg.Cache.CleanupInterval)
		assert.False(t, cfg.Cache.KeyByPlace)
		assert.Equal(t, 100*time.Millisecond, cfg.Matching.Timeout)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, "json", cfg.Logging.Format)
		assert.Equal(t, map[string]string{"server_name": "Lobby"}, cfg.Placeholders)
		assert.False(t, cfg.Packets.ClickToEdit)
		assert.Equal(t, "/me edit", cfg.Packets.EditCommand)
		assert.Empty(t, cfg.EditCommand())
		assert.Equal(t, []domain.Place{domain.InventoryItemName, domain.InventoryItemLore, domain.Kick}, cfg.DisabledPlaces())
		assert.NoError(t, cfg.Validate())
	})

	t.Run("частичная конфигурация сохраняет значения по умолчанию", func(t *testing.T) {
		cfg := defaultConfig()
		err := loadFromYAML(createTempConfigFile(t, partialYAML), cfg)
		require.NoError(t, err)

		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, DefaultServerHost, cfg.Server.Host)
		assert.Equal(t, "/srv/edits", cfg.Storage.EditsDir)
		assert.Equal(t, DriverFile, cfg.Storage.Driver)
		assert.True(t, cfg.Cache.KeyByPlace)
		assert.Equal(t, DefaultEditCommand, cfg.EditCommand())
		assert.Empty(t, cfg.DisabledPlaces())
		assert.NoError(t, cfg.Validate())
	})

	t.Run("отсутствие файла не является ошибкой", func(t *testing.T) {
		cfg := defaultConfig()
		err := loadFromYAML("non_existent_file.yml", cfg)
		assert.NoError(t, err)
	})

	t.Run("некорректный yaml", func(t *testing.T) {
		cfg := defaultConfig()
		err := loadFromYAML(createTempConfigFile(t, "invalid yaml: {"), cfg)
		assert.Error(t, err)
	})
}

func TestLoadConfig_Env(t *testing.T) {
	t.Run("переменные окружения важнее файла", func(t *testing.T) {
		t.Setenv(EnvPrefix+"SERVER_PORT", "7000")
		t.Setenv(EnvPrefix+"STORAGE_DRIVER", "file")
		t.Setenv(EnvPrefix+"CACHE_KEY_BY_PLACE", "true")
		t.Setenv(EnvPrefix+"MATCHING_TIMEOUT", "1s")
		t.Setenv(EnvPrefix+"LOG_LEVEL", "warn")
		t.Setenv(EnvPrefix+"PACKETS_CLICK_TO_EDIT", "true")

		cfg, err := LoadConfig(createTempConfigFile(t, fullYAML))
		require.NoError(t, err)
		assert.Equal(t, 7000, cfg.Server.Port)
		assert.Equal(t, DriverFile, cfg.Storage.Driver)
		assert.True(t, cfg.Cache.KeyByPlace)
		assert.Equal(t, time.Second, cfg.Matching.Timeout)
		assert.Equal(t, "warn", cfg.Logging.Level)
		assert.Equal(t, "1.12.2", cfg.Platform.Version)
		assert.Equal(t, "/me edit", cfg.EditCommand())
	})

	t.Run("некорректный флаг click_to_edit", func(t *testing.T) {
		t.Setenv(EnvPrefix+"PACKETS_CLICK_TO_EDIT", "maybe")
		_, err := LoadConfig(createTempConfigFile(t, partialYAML))
		assert.Error(t, err)
	})

	t.Run("некорректный порт", func(t *testing.T) {
		t.Setenv(EnvPrefix+"SERVER_PORT", "http")
		_, err := LoadConfig(createTempConfigFile(t, partialYAML))
		assert.Error(t, err)
	})

	t.Run("некорректная длительность", func(t *testing.T) {
		t.Setenv(EnvPrefix+"CACHE_IDLE_TTL", "soon")
		_, err := LoadConfig(createTempConfigFile(t, partialYAML))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutator func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"invalid port", func(c *Config) { c.Server.Port = 0 }, true},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, true},
		{"invalid shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = 0 }, true},
		{"invalid event ttl", func(c *Config) { c.Server.EventTTL = 0 }, true},
		{"invalid platform version", func(c *Config) { c.Platform.Version = "latest" }, true},
		{"unknown storage driver", func(c *Config) { c.Storage.Driver = "redis" }, true},
		{"empty edits dir", func(c *Config) { c.Storage.EditsDir = "" }, true},
		{"empty sqlite dsn", func(c *Config) { c.Storage.Driver = DriverSQLite; c.Storage.DSN = "" }, true},
		{"invalid idle ttl", func(c *Config) { c.Cache.IdleTTL = 0 }, true},
		{"disabled cleanup", func(c *Config) { c.Cache.CleanupInterval = 0 }, false},
		{"negative cleanup", func(c *Config) { c.Cache.CleanupInterval = -time.Second }, true},
		{"invalid matching timeout", func(c *Config) { c.Matching.Timeout = 0 }, true},
		{"unknown listener", func(c *Config) { c.Packets.Listeners = map[string]bool{"tablist": false} }, true},
		{"known listener", func(c *Config) { c.Packets.Listeners = map[string]bool{"bossbar": false} }, false},
		{"empty edit command", func(c *Config) { c.Packets.EditCommand = " " }, true},
		{"empty edit command without click", func(c *Config) { c.Packets.ClickToEdit = false; c.Packets.EditCommand = "" }, false},
		{"invalid logging level", func(c *Config) { c.Logging.Level = "wrong" }, true},
		{"invalid logging format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutator(cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
