package log

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestColorCodeHandler_Handle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "color codes in message",
			input:    "§aHello, §lBob§r!",
			expected: "&aHello, &lBob&r!",
		},
		{
			name:     "no color codes",
			input:    "This is a normal log message",
			expected: "This is a normal log message",
		},
		{
			name:     "section sign without code",
			input:    "price: 5§ or §z",
			expected: "price: 5§ or §z",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel() // Добавляем параллельное выполнение для выявления гонок
			var buf bytes.Buffer
			logger := slog.New(NewColorCodeHandler(slog.NewJSONHandler(&buf, nil)))

			logger.Info(tt.input)

			output := buf.String()
			if !strings.Contains(output, tt.expected) {
				t.Errorf("expected output to contain %q, got %q", tt.expected, output)
			}
		})
	}
}

func TestColorCodeHandler_Attrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewColorCodeHandler(slog.NewJSONHandler(&buf, nil)))

	logger = logger.With(slog.String("rule", "§cwarning"))
	logger.Info("message analyzed",
		slog.String("message", "§eHi"),
		slog.Any("error", errors.New("§4broken")),
		slog.Group("place", slog.String("name", "§6Game Chat")),
		slog.Int("count", 3),
	)

	output := buf.String()
	if strings.Contains(output, "§") {
		t.Errorf("expected output to not contain section signs, got %q", output)
	}
	for _, want := range []string{"&cwarning", "&eHi", "&4broken", "&6Game Chat", `"count":3`} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got %q", want, output)
		}
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn", "json")

	logger.Info("hidden")
	logger.Warn("§avisible")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Errorf("expected info record to be filtered, got %q", output)
	}
	if !strings.Contains(output, `"msg":"&avisible"`) {
		t.Errorf("expected json record, got %q", output)
	}

	buf.Reset()
	NewLogger(&buf, "debug", "text").Debug("plain")
	if !strings.Contains(buf.String(), "msg=plain") {
		t.Errorf("expected text record, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
