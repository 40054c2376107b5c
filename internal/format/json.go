package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// IsJSON сообщает, что текст является JSON-разметкой сообщения (объект или массив).
func IsJSON(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return false
	}
	return json.Valid([]byte(trimmed))
}

var colorNames = map[string]rune{
	"black":        '0',
	"dark_blue":    '1',
	"dark_green":   '2',
	"dark_aqua":    '3',
	"dark_red":     '4',
	"dark_purple":  '5',
	"gold":         '6',
	"gray":         '7',
	"dark_gray":    '8',
	"blue":         '9',
	"green":        'a',
	"aqua":         'b',
	"red":          'c',
	"light_purple": 'd',
	"yellow":       'e',
	"white":        'f',
	"reset":        'r',
}

// component — фрагмент JSON-разметки сообщения.
type component struct {
	Text          string            `json:"text"`
	Translate     string            `json:"translate"`
	Color         string            `json:"color"`
	Bold          *bool             `json:"bold"`
	Italic        *bool             `json:"italic"`
	Underlined    *bool             `json:"underlined"`
	Strikethrough *bool             `json:"strikethrough"`
	Obfuscated    *bool             `json:"obfuscated"`
	Extra         []json.RawMessage `json:"extra"`
}

type style struct {
	color         string
	bold          bool
	italic        bool
	underlined    bool
	strikethrough bool
	obfuscated    bool
}

func (s style) inherit(c component) style {
	if c.Color != "" {
		s.color = c.Color
	}
	if c.Bold != nil {
		s.bold = *c.Bold
	}
	if c.Italic != nil {
		s.italic = *c.Italic
	}
	if c.Underlined != nil {
		s.underlined = *c.Underlined
	}
	if c.Strikethrough != nil {
		s.strikethrough = *c.Strikethrough
	}
	if c.Obfuscated != nil {
		s.obfuscated = *c.Obfuscated
	}
	return s
}

func (s style) codes() string {
	var b strings.Builder
	if code := colorCode(s.color); code != "" {
		b.WriteString(code)
	}
	flags := []struct {
		on   bool
		code rune
	}{
		{s.obfuscated, 'k'},
		{s.bold, 'l'},
		{s.strikethrough, 'm'},
		{s.underlined, 'n'},
		{s.italic, 'o'},
	}
	for _, f := range flags {
		if f.on {
			b.WriteRune(ColorChar)
			b.WriteRune(f.code)
		}
	}
	return b.String()
}

func colorCode(color string) string {
	if color == "" {
		return ""
	}
	if code, ok := colorNames[strings.ToLower(color)]; ok {
		return string([]rune{ColorChar, code})
	}
	if len(color) == 7 && color[0] == '#' {
		var b strings.Builder
		b.WriteRune(ColorChar)
		b.WriteRune('x')
		for _, r := range strings.ToLower(color[1:]) {
			if !isHexDigit(r) {
				return ""
			}
			b.WriteRune(ColorChar)
			b.WriteRune(r)
		}
		return b.String()
	}
	return ""
}

// ToLegacy преобразует JSON-разметку в текст с цветовыми кодами §.
func ToLegacy(text string) (string, error) {
	var b strings.Builder
	if err := renderLegacy(&b, json.RawMessage(strings.TrimSpace(text)), style{}); err != nil {
		return "", fmt.Errorf("failed to render message markup: %w", err)
	}
	return b.String(), nil
}

func renderLegacy(b *strings.Builder, raw json.RawMessage, parent style) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		b.WriteString(parent.codes())
		b.WriteString(s)
		return nil
	case '[':
		var parts []json.RawMessage
		if err := json.Unmarshal(raw, &parts); err != nil {
			return err
		}
		for _, part := range parts {
			if err := renderLegacy(b, part, parent); err != nil {
				return err
			}
		}
		return nil
	case '{':
		var c component
		if err := json.Unmarshal(raw, &c); err != nil {
			return err
		}
		st := parent.inherit(c)
		content := c.Text
		if content == "" {
			content = c.Translate
		}
		if content != "" {
			b.WriteString(st.codes())
			b.WriteString(content)
		}
		for _, extra := range c.Extra {
			if err := renderLegacy(b, extra, st); err != nil {
				return err
			}
		}
		return nil
	default:
		// числа и логические значения выводятся как есть
		var v interface{}
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		fmt.Fprint(b, v)
		return nil
	}
}

// Preview возвращает текст сообщения в виде, пригодном для показа человеку.
func Preview(text string, isJSON bool) string {
	if !isJSON {
		return text
	}
	legacy, err := ToLegacy(text)
	if err != nil {
		return text
	}
	return legacy
}
