package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"message-editor/internal/adapters/console"
	"message-editor/internal/core/services"
	"message-editor/internal/pkg/config"
	"message-editor/internal/pkg/term"
	"message-editor/internal/server"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "message-editor",
		Short: "Rewrites, relocates and removes messages shown to players",
		Long: `Message Editor matches outgoing messages against saved edit rules
and rewrites, moves or removes them before they reach the player.

Rules are authored in an interactive editor and stored as YAML files
or in an SQLite database.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigFile, "path to the YAML config file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(consoleCmd())
	rootCmd.AddCommand(rulesCmd())

	if err := rootCmd.Execute(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			return runServer(path)
		},
	}
}

// runServer инкапсулирует инициализацию и запуск HTTP API.
func runServer(configPath string) error {
	// 1. Загрузка конфигурации и инициализация логгера
	cfg, logger, err := loadConfig(configPath, os.Stdout)
	if err != nil {
		return err
	}

	// 2. Инициализация зависимостей
	events := server.NewEventStore(cfg.Server.EventTTL)
	a, err := newApp(cfg, logger, events, events)
	if err != nil {
		return err
	}
	defer a.Close()

	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	if _, err := a.engine.Reload(appCtx); err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}
	a.engine.StartCacheCleanup(appCtx, cfg.Cache.CleanupInterval)
	events.StartCleanupTicker(appCtx, cfg.Server.EventTTL)

	// 3. Создание HTTP-сервера
	srv, err := server.New(cfg, a.engine, events)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// 4. Запуск сервера и graceful shutdown
	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		slog.Info("Starting server", "addr", cfg.Address())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		slog.Info("Signal received, shutting down...")
	case <-serverDone:
		return errors.New("server stopped unexpectedly")
	}

	// Сначала останавливаем фоновую очистку кэшей
	appCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	<-serverDone
	slog.Info("Application exited gracefully")
	return nil
}

func consoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Start an interactive single-player session",
		Long: `Start an interactive session where you send messages to yourself,
open the editor for them and manage analyzed message places.

Logs are written to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			return runConsole(cmd.Context(), path)
		},
	}
}

func runConsole(ctx context.Context, configPath string) error {
	cfg, logger, err := loadConfig(configPath, os.Stderr)
	if err != nil {
		return err
	}

	ui := console.NewConsole(os.Stdout)
	a, err := newApp(cfg, logger, ui, ui)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := a.engine.Reload(ctx); err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}
	a.engine.StartCacheCleanup(ctx, cfg.Cache.CleanupInterval)

	return term.NewTerminal(a.engine, uuid.New(), term.WithWidthSetter(ui)).Run(ctx)
}

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect stored message edits",
	}
	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesValidateCmd())
	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored message edits in application order",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, logger, err := loadConfig(path, os.Stderr)
			if err != nil {
				return err
			}
			quiet := console.NewConsole(io.Discard)
			a, err := newApp(cfg, logger, quiet, quiet)
			if err != nil {
				return err
			}
			defer a.Close()

			records, _ := a.store.LoadAll(cmd.Context())
			out := cmd.OutOrStdout()
			for _, r := range records {
				place := r.SourcePlace
				if place == "" {
					place = "any"
				}
				fmt.Fprintf(out, "%s\t[%s]\t%s -> %s\n", r.Name, place, r.SourcePattern, r.Replacement)
			}
			fmt.Fprintf(out, "Total: %d\n", len(records))
			return nil
		},
	}
}

func rulesValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that every stored message edit loads",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, logger, err := loadConfig(path, os.Stderr)
			if err != nil {
				return err
			}
			quiet := console.NewConsole(io.Discard)
			a, err := newApp(cfg, logger, quiet, quiet)
			if err != nil {
				return err
			}
			defer a.Close()

			records, failed := a.store.LoadAll(cmd.Context())
			valid := 0
			for _, r := range records {
				if _, err := services.BuildRule(r, a.registry, cfg.Matching.Timeout); err != nil {
					failed = append(failed, err)
					continue
				}
				valid++
			}

			out := cmd.OutOrStdout()
			for _, err := range failed {
				fmt.Fprintf(out, "FAIL %v\n", err)
			}
			fmt.Fprintf(out, "Valid: %d, failed: %d\n", valid, len(failed))
			if len(failed) > 0 {
				return fmt.Errorf("%d message edit(s) failed to load", len(failed))
			}
			return nil
		},
	}
}
