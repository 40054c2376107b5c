package format

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// MessageLength — ширина строки превью сообщения в меню редактора.
const MessageLength = 40

// visibleWidth возвращает ширину текста без учета цветовых кодов.
func visibleWidth(s string) int {
	return runewidth.StringWidth(Strip(s))
}

// Wrap разбивает текст на строки шириной не более width видимых символов.
// Переводы строк сохраняются, а цвета, действующие в конце строки,
// переносятся в начало следующей.
func Wrap(text string, width int) []string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		for _, line := range wrapLine(paragraph, width) {
			if len(lines) > 0 {
				line = LastColors(lines[len(lines)-1]) + line
			}
			lines = append(lines, line)
		}
	}
	return lines
}

// wrapLine переносит строку по границам слов; слово длиннее width разрезается.
func wrapLine(s string, width int) []string {
	if width <= 0 || visibleWidth(s) <= width {
		return []string{s}
	}

	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	var current strings.Builder
	currentWidth := 0

	flush := func() {
		if current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
			currentWidth = 0
		}
	}

	for _, word := range words {
		wordWidth := visibleWidth(word)

		if wordWidth > width {
			flush()
			lines = append(lines, splitWord(word, width)...)
			continue
		}

		if current.Len() > 0 && currentWidth+1+wordWidth > width {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
			currentWidth++
		}
		current.WriteString(word)
		currentWidth += wordWidth
	}
	flush()

	return lines
}

// splitWord режет слово на куски шириной не более width, не разрывая цветовые коды.
func splitWord(word string, width int) []string {
	var chunks []string
	var current strings.Builder
	currentWidth := 0

	runes := []rune(word)
	for i := 0; i < len(runes); i++ {
		if runes[i] == ColorChar && i+1 < len(runes) && isColorCode(runes[i+1]) {
			current.WriteRune(runes[i])
			current.WriteRune(runes[i+1])
			i++
			continue
		}
		w := runewidth.RuneWidth(runes[i])
		if currentWidth+w > width && currentWidth > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentWidth = 0
		}
		current.WriteRune(runes[i])
		currentWidth += w
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
