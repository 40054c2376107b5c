package main

import (
	"fmt"
	"io"
	"log/slog"

	"message-editor/internal/adapters/codec"
	"message-editor/internal/adapters/placeholder"
	"message-editor/internal/adapters/storage"
	"message-editor/internal/core/services"
	"message-editor/internal/domain"
	"message-editor/internal/editor"
	"message-editor/internal/engine"
	"message-editor/internal/log"
	"message-editor/internal/pkg/config"
	"message-editor/internal/ports"
)

// app содержит собранные зависимости движка.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *domain.PlaceRegistry
	store    ports.RuleStore
	engine   *engine.Engine
	closers  []func() error
}

// loadConfig загружает и проверяет конфигурацию, затем настраивает логгер по умолчанию.
func loadConfig(path string, logOut io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := log.NewLogger(logOut, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, logger, nil
}

// newApp собирает движок. Уведомления и меню редактора выводятся через notifier и menus.
func newApp(cfg *config.Config, logger *slog.Logger, notifier ports.Notifier, menus ports.MenuPresenter) (*app, error) {
	version, err := cfg.PlatformVersion()
	if err != nil {
		return nil, fmt.Errorf("invalid platform version: %w", err)
	}
	a := &app{cfg: cfg, logger: logger, registry: domain.NewPlaceRegistry(version)}

	if err := a.openStore(); err != nil {
		return nil, err
	}

	matcher := services.NewMatchingService(a.registry,
		services.WithLogger(logger),
		services.WithCacheTTL(cfg.Cache.IdleTTL),
		services.WithPlaceKeyedCache(cfg.Cache.KeyByPlace),
		services.WithPlaceholderExpander(placeholder.NewStaticExpander(cfg.Placeholders)),
	)
	editorSvc := editor.NewService(matcher, a.store, notifier, menus,
		editor.WithLogger(logger),
		editor.WithMatchTimeout(cfg.Matching.Timeout),
	)
	packets := codec.NewCodec()
	a.engine = engine.New(matcher, editorSvc, a.store,
		engine.WithLogger(logger),
		engine.WithMatchTimeout(cfg.Matching.Timeout),
		engine.WithPacketCodec(packets, packets),
		engine.WithClickToEdit(cfg.EditCommand()),
		engine.WithDisabledPlaces(cfg.DisabledPlaces()...),
	)
	return a, nil
}

func (a *app) openStore() error {
	switch a.cfg.Storage.Driver {
	case config.DriverSQLite:
		db := storage.NewDB(a.cfg.Storage.DSN)
		if err := db.Open(false); err != nil {
			return fmt.Errorf("failed to open rule database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		a.store = storage.NewSQLiteStore(db)
	default:
		a.store = storage.NewFileStore(a.cfg.Storage.EditsDir, storage.WithFileLogger(a.logger))
	}
	a.logger.Info("Rule storage opened", slog.String("driver", a.cfg.Storage.Driver))
	return nil
}

// Close освобождает ресурсы хранилища.
func (a *app) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.logger.Error("Failed to close resource", slog.Any("error", err))
		}
	}
}
