// Package format содержит преобразования текста сообщений: цветовые коды,
// проверку JSON-разметки и подготовку превью для меню редактора.
package format

import (
	"strings"
)

const (
	// ColorChar — префикс цветового кода, который понимает клиент.
	ColorChar = '§'
	// AltColorChar — префикс, которым коды записываются в правилах и конфигурации.
	AltColorChar = '&'

	colorCodes = "0123456789AaBbCcDdEeFfKkLlMmNnOoRrXx"
)

// isColorCode сообщает, является ли символ допустимым кодом после префикса.
func isColorCode(r rune) bool {
	return r < 128 && strings.ContainsRune(colorCodes, r)
}

// isFormatCode сообщает, что код задает стиль, а не цвет.
func isFormatCode(r rune) bool {
	switch r {
	case 'k', 'l', 'm', 'n', 'o':
		return true
	}
	return false
}

// Translate заменяет коды вида &a на §a.
func Translate(text string) string {
	return replacePrefix(text, AltColorChar, ColorChar)
}

// Untranslate заменяет коды вида §a на &a для вывода в консоль и журналы.
func Untranslate(text string) string {
	return replacePrefix(text, ColorChar, AltColorChar)
}

func replacePrefix(text string, from, to rune) string {
	if !strings.ContainsRune(text, from) {
		return text
	}

	runes := []rune(text)
	for i := 0; i < len(runes)-1; i++ {
		if runes[i] == from && isColorCode(runes[i+1]) {
			runes[i] = to
			runes[i+1] = toLower(runes[i+1])
		}
	}
	return string(runes)
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

// Strip удаляет из текста все коды вида §a.
func Strip(text string) string {
	if !strings.ContainsRune(text, ColorChar) {
		return text
	}

	var b strings.Builder
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if runes[i] == ColorChar && i+1 < len(runes) && isColorCode(runes[i+1]) {
			i++
			continue
		}
		b.WriteRune(runes[i])
	}
	return b.String()
}

// LastColors возвращает цвет и стили, действующие в конце текста,
// чтобы перенести их на следующую строку.
func LastColors(text string) string {
	runes := []rune(text)
	var codes []string

	for i := len(runes) - 2; i >= 0; i-- {
		if runes[i] != ColorChar {
			continue
		}
		code := toLower(runes[i+1])
		if !isColorCode(code) {
			continue
		}

		// §x§r§r§g§g§b§b
		if hex, ok := hexColorEndingAt(runes, i); ok {
			codes = append([]string{hex}, codes...)
			break
		}

		codes = append([]string{string([]rune{ColorChar, code})}, codes...)
		if !isFormatCode(code) {
			break
		}
	}

	return strings.Join(codes, "")
}

// hexColorEndingAt проверяет, что в позиции i заканчивается шестнадцатеричный цвет.
func hexColorEndingAt(runes []rune, i int) (string, bool) {
	start := i - 12
	if start < 0 || runes[start] != ColorChar || toLower(runes[start+1]) != 'x' {
		return "", false
	}
	for j := start + 2; j <= i; j += 2 {
		if runes[j] != ColorChar || !isHexDigit(runes[j+1]) {
			return "", false
		}
	}
	return string(runes[start : i+2]), true
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// specialRegexChars — символы, которые экранируются при построении шаблона из текста.
const specialRegexChars = `/<>{}()[],.+-*?^$\|`

// QuoteSpecial экранирует символы регулярных выражений обратной косой чертой.
func QuoteSpecial(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(specialRegexChars, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
