package config

import "time"

// Default values for configuration.
const (
	// Server defaults
	DefaultServerHost      = "127.0.0.1"
	DefaultServerPort      = 8080
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultEventTTL        = 5 * time.Minute

	// Platform defaults
	DefaultPlatformVersion = "1.19.4"

	// Storage defaults
	DefaultStorageDriver = DriverFile
	DefaultEditsDir      = "edits"
	DefaultSQLiteDSN     = "data/message-editor.db"

	// Cache defaults
	DefaultCacheIdleTTL         = 15 * time.Minute
	DefaultCacheCleanupInterval = 1 * time.Minute
	DefaultCacheKeyByPlace      = true

	// Matching defaults
	DefaultMatchTimeout = 250 * time.Millisecond

	// Packets defaults
	DefaultClickToEdit = true
	DefaultEditCommand = "/message-editor edit"

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	// DefaultConfigFile — файл конфигурации по умолчанию.
	DefaultConfigFile = "config.yml"
	// EnvPrefix — префикс переменных окружения, переопределяющих файл.
	EnvPrefix = "MESSAGE_EDITOR_"
)

// Драйверы хранилища правил.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)
