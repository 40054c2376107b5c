package log

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"message-editor/internal/format"
)

// ColorCodeHandler - обертка для slog.Handler, которая заменяет коды цвета
// §x на &x, чтобы сообщения игроков читались в терминале и в файлах логов
type ColorCodeHandler struct {
	handler slog.Handler
}

// NewColorCodeHandler создает новый обработчик с заменой кодов цвета
func NewColorCodeHandler(handler slog.Handler) *ColorCodeHandler {
	return &ColorCodeHandler{
		handler: handler,
	}
}

// Enabled реализует интерфейс slog.Handler
func (h *ColorCodeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle реализует интерфейс slog.Handler
func (h *ColorCodeHandler) Handle(ctx context.Context, record slog.Record) error {
	// Clone не копирует атрибуты в новую запись, их нужно добавить заново.
	r := slog.NewRecord(record.Time, record.Level, format.Untranslate(record.Message), record.PC)

	record.Attrs(func(a slog.Attr) bool {
		r.AddAttrs(slog.Attr{
			Key:   a.Key,
			Value: untranslateValue(a.Value),
		})
		return true
	})

	return h.handler.Handle(ctx, r)
}

// WithAttrs реализует интерфейс slog.Handler
func (h *ColorCodeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	converted := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		converted[i] = slog.Attr{
			Key:   attr.Key,
			Value: untranslateValue(attr.Value),
		}
	}
	return &ColorCodeHandler{
		handler: h.handler.WithAttrs(converted),
	}
}

// WithGroup реализует интерфейс slog.Handler
func (h *ColorCodeHandler) WithGroup(name string) slog.Handler {
	return &ColorCodeHandler{
		handler: h.handler.WithGroup(name),
	}
}

// untranslateValue рекурсивно заменяет коды цвета в значениях атрибутов
func untranslateValue(value slog.Value) slog.Value {
	switch value.Kind() {
	case slog.KindString:
		return slog.StringValue(format.Untranslate(value.String()))
	case slog.KindAny:
		if err, ok := value.Any().(error); ok {
			return slog.StringValue(format.Untranslate(err.Error()))
		}
		return value
	case slog.KindGroup:
		group := value.Group()
		converted := make([]slog.Attr, len(group))
		for i, attr := range group {
			converted[i] = slog.Attr{
				Key:   attr.Key,
				Value: untranslateValue(attr.Value),
			}
		}
		return slog.GroupValue(converted...)
	default:
		return value
	}
}

// ParseLevel преобразует имя уровня из конфигурации в slog.Level.
// Неизвестное имя означает info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger создает логгер с заменой кодов цвета в формате json или text
func NewLogger(w io.Writer, level, logFormat string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler
	if logFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(NewColorCodeHandler(handler))
}
