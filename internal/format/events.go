package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// AttachEvents оборачивает сообщение в JSON-разметку, в которой каждый фрагмент
// верхнего уровня показывает подсказку hover при наведении и выполняет
// команду command по клику. Текст с цветовыми кодами становится одним фрагментом.
func AttachEvents(text string, isJSON bool, hover, command string) (string, error) {
	var parts []any
	if isJSON {
		var v any
		dec := json.NewDecoder(strings.NewReader(text))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return "", fmt.Errorf("failed to parse message markup: %w", err)
		}
		if list, ok := v.([]any); ok {
			parts = list
		} else {
			parts = []any{v}
		}
	} else {
		parts = []any{map[string]any{"text": text}}
	}

	for i, part := range parts {
		obj, ok := part.(map[string]any)
		if !ok {
			obj = map[string]any{"text": fmt.Sprint(part)}
		}
		obj["hoverEvent"] = map[string]any{"action": "show_text", "value": hover}
		obj["clickEvent"] = map[string]any{"action": "run_command", "value": command}
		parts[i] = obj
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]any{"text": "", "extra": parts}); err != nil {
		return "", fmt.Errorf("failed to encode message markup: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
