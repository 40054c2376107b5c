// Package config предоставляет управление конфигурацией приложения
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"message-editor/internal/domain"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Server содержит конфигурацию HTTP-сервера
type Server struct {
	Host            string        `json:"host" yaml:"host"`
	Port            int           `json:"port" yaml:"port"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	// EventTTL — сколько хранятся не забранные уведомления пользователей.
	EventTTL time.Duration `json:"event_ttl" yaml:"event_ttl"`
}

// Platform содержит сведения об игровой платформе
type Platform struct {
	Version string `json:"version" yaml:"version"`
}

// Storage содержит конфигурацию хранилища правил
type Storage struct {
	Driver   string `json:"driver" yaml:"driver"` // file, sqlite
	EditsDir string `json:"edits_dir" yaml:"edits_dir"`
	DSN      string `json:"dsn" yaml:"dsn"`
}

// Cache содержит конфигурацию кэшей результатов
type Cache struct {
	IdleTTL         time.Duration `json:"idle_ttl" yaml:"idle_ttl"`
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"` // 0 - без периодической очистки
	KeyByPlace      bool          `json:"key_by_place" yaml:"key_by_place"`
}

// Matching содержит конфигурацию сопоставления шаблонов
type Matching struct {
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// Packets содержит конфигурацию перехвата пакетов
type Packets struct {
	// Listeners выключает перехватчики по имени (chat, kick, ...). Не указанные включены.
	Listeners   map[string]bool `json:"listeners" yaml:"listeners"`
	ClickToEdit bool            `json:"click_to_edit" yaml:"click_to_edit"`
	EditCommand string          `json:"edit_command" yaml:"edit_command"`
}

// Logging содержит конфигурацию логирования
type Logging struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // json, text
}

// Config содержит конфигурацию приложения
type Config struct {
	Server       Server            `json:"server" yaml:"server"`
	Platform     Platform          `json:"platform" yaml:"platform"`
	Storage      Storage           `json:"storage" yaml:"storage"`
	Cache        Cache             `json:"cache" yaml:"cache"`
	Matching     Matching          `json:"matching" yaml:"matching"`
	Packets      Packets           `json:"packets" yaml:"packets"`
	Logging      Logging           `json:"logging" yaml:"logging"`
	Placeholders map[string]string `json:"placeholders" yaml:"placeholders"`
}

// LoadConfig загружает конфигурацию: значения по умолчанию, затем YAML-файл,
// затем переменные окружения MESSAGE_EDITOR_*, в том числе из .env файла.
// Отсутствие файла конфигурации не является ошибкой.
func LoadConfig(path string) (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	if path == "" {
		path = DefaultConfigFile
	}

	cfg := defaultConfig()
	if err := loadFromYAML(path, cfg); err != nil {
		return nil, err
	}
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию из env: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: Server{
			Host:            DefaultServerHost,
			Port:            DefaultServerPort,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			EventTTL:        DefaultEventTTL,
		},
		Platform: Platform{Version: DefaultPlatformVersion},
		Storage: Storage{
			Driver:   DefaultStorageDriver,
			EditsDir: DefaultEditsDir,
			DSN:      DefaultSQLiteDSN,
		},
		Cache: Cache{
			IdleTTL:         DefaultCacheIdleTTL,
			CleanupInterval: DefaultCacheCleanupInterval,
			KeyByPlace:      DefaultCacheKeyByPlace,
		},
		Matching: Matching{Timeout: DefaultMatchTimeout},
		Packets: Packets{
			ClickToEdit: DefaultClickToEdit,
			EditCommand: DefaultEditCommand,
		},
		Logging: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// loadFromYAML накладывает значения из YAML-файла на cfg
func loadFromYAML(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("не удалось разобрать YAML конфигурацию: %w", err)
	}
	return nil
}

// loadFromEnv накладывает значения переменных окружения на cfg
func loadFromEnv(cfg *Config) error {
	strs := map[string]*string{
		"SERVER_HOST":          &cfg.Server.Host,
		"PLATFORM_VERSION":     &cfg.Platform.Version,
		"STORAGE_DRIVER":       &cfg.Storage.Driver,
		"STORAGE_EDITS_DIR":    &cfg.Storage.EditsDir,
		"STORAGE_DSN":          &cfg.Storage.DSN,
		"LOG_LEVEL":            &cfg.Logging.Level,
		"LOG_FORMAT":           &cfg.Logging.Format,
		"PACKETS_EDIT_COMMAND": &cfg.Packets.EditCommand,
	}
	for key, dst := range strs {
		if v, ok := lookupEnv(key); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"SERVER_SHUTDOWN_TIMEOUT": &cfg.Server.ShutdownTimeout,
		"SERVER_EVENT_TTL":        &cfg.Server.EventTTL,
		"CACHE_IDLE_TTL":          &cfg.Cache.IdleTTL,
		"CACHE_CLEANUP_INTERVAL":  &cfg.Cache.CleanupInterval,
		"MATCHING_TIMEOUT":        &cfg.Matching.Timeout,
	}
	for key, dst := range durations {
		v, ok := lookupEnv(key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("недопустимый %s%s: %w", EnvPrefix, key, err)
		}
		*dst = d
	}

	if v, ok := lookupEnv("SERVER_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("недопустимый %sSERVER_PORT: %w", EnvPrefix, err)
		}
		cfg.Server.Port = port
	}
	if v, ok := lookupEnv("CACHE_KEY_BY_PLACE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("недопустимый %sCACHE_KEY_BY_PLACE: %w", EnvPrefix, err)
		}
		cfg.Cache.KeyByPlace = b
	}
	if v, ok := lookupEnv("PACKETS_CLICK_TO_EDIT"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("недопустимый %sPACKETS_CLICK_TO_EDIT: %w", EnvPrefix, err)
		}
		cfg.Packets.ClickToEdit = b
	}
	return nil
}

// Address возвращает адрес сервера в формате "host:port"
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// PlatformVersion возвращает разобранную версию платформы
func (c *Config) PlatformVersion() (domain.Version, error) {
	return domain.ParseVersion(c.Platform.Version)
}

// DisabledPlaces возвращает места, перехватчики которых выключены.
func (c *Config) DisabledPlaces() []domain.Place {
	names := make([]string, 0, len(c.Packets.Listeners))
	for name, enabled := range c.Packets.Listeners {
		if !enabled {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var places []domain.Place
	for _, name := range names {
		places = append(places, domain.ListenerPlaces[name]...)
	}
	return places
}

// EditCommand возвращает команду редактирования для сообщений чата.
// Пустая строка означает, что сообщения не оборачиваются.
func (c *Config) EditCommand() string {
	if !c.Packets.ClickToEdit {
		return ""
	}
	return c.Packets.EditCommand
}

// Validate проверяет, являются ли значения конфигурации допустимыми
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port должен быть действительным номером порта (1-65535)")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout должно быть положительным")
	}
	if c.Server.EventTTL <= 0 {
		return fmt.Errorf("server.event_ttl должно быть положительным")
	}

	if _, err := c.PlatformVersion(); err != nil {
		return fmt.Errorf("platform.version: %w", err)
	}

	switch c.Storage.Driver {
	case DriverFile:
		if c.Storage.EditsDir == "" {
			return fmt.Errorf("storage.edits_dir не может быть пустым для драйвера file")
		}
	case DriverSQLite:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn не может быть пустым для драйвера sqlite")
		}
	default:
		return fmt.Errorf("storage.driver должен быть одним из: file, sqlite")
	}

	if c.Cache.IdleTTL <= 0 {
		return fmt.Errorf("cache.idle_ttl должно быть положительным")
	}
	if c.Cache.CleanupInterval < 0 {
		return fmt.Errorf("cache.cleanup_interval должно быть неотрицательным (0 для отключения очистки)")
	}
	if c.Matching.Timeout <= 0 {
		return fmt.Errorf("matching.timeout должно быть положительным")
	}

	for name := range c.Packets.Listeners {
		if _, ok := domain.ListenerPlaces[name]; !ok {
			return fmt.Errorf("packets.listeners.%s: неизвестный перехватчик, допустимы: %s", name, strings.Join(domain.ListenerNames(), ", "))
		}
	}
	if c.Packets.ClickToEdit && strings.TrimSpace(c.Packets.EditCommand) == "" {
		return fmt.Errorf("packets.edit_command не может быть пустым при включенном click_to_edit")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// all good
	default:
		return fmt.Errorf("logging.level должен быть одним из: debug, info, warn, error")
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format должен быть одним из: json, text")
	}

	return nil
}

// lookupEnv извлекает переменную окружения с префиксом приложения
func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
