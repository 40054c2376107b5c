// Package console выводит сообщения редактора и его меню в текстовый поток.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"message-editor/internal/domain"
	"message-editor/internal/editor"
	"message-editor/internal/format"
	"message-editor/internal/ports"

	"github.com/google/uuid"
)

// Console реализует интерфейсы Notifier и MenuPresenter для вывода в консоль.
// Цветовые коды выводятся в виде &a.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	width int
}

// NewConsole создает новый экземпляр Console.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w, width: format.MessageLength}
}

// SetWidth меняет ширину превью сообщений в меню.
func (c *Console) SetWidth(width int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if width > 0 {
		c.width = width
	}
}

// Notify выводит сообщение пользователю.
func (c *Console) Notify(user uuid.UUID, message string) {
	c.printf("[%s] %s\n", shortID(user), format.Untranslate(message))
}

// PlayCue выводит звуковой сигнал в виде текстовой отметки.
func (c *Console) PlayCue(user uuid.UUID, cue ports.Cue) {
	c.printf("[%s] *%s*\n", shortID(user), cue)
}

// CloseMenu сообщает о закрытии меню.
func (c *Console) CloseMenu(user uuid.UUID) {
	c.printf("[%s] --- menu closed ---\n", shortID(user))
}

// OpenMenu выводит меню редактора с превью старого и нового сообщения.
func (c *Console) OpenMenu(user uuid.UUID, s domain.EditSession) {
	c.mu.Lock()
	width := c.width
	c.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "--- Message Editor [%s] ---\n", shortID(user))
	fmt.Fprintf(&b, "File: edits/%s.yml (%s)\n", s.FileName, editor.ActionEditFileName)

	fmt.Fprintf(&b, "Old message (%s):\n", editor.ActionEditSource)
	writePreview(&b, format.Preview(s.SourceText, s.SourceJSON), width)
	fmt.Fprintf(&b, "Old message pattern:\n")
	writePreview(&b, s.SourcePattern, width)
	fmt.Fprintf(&b, "Old message place: %s (%s)\n", s.SourcePlace.Name, s.SourcePlace.FriendlyName)

	fmt.Fprintf(&b, "New message (%s, %s):\n", editor.ActionEditReplacement, editor.ActionEditReplacementKey)
	if s.ReplacementText == "" {
		writePreview(&b, format.Translate("&cMessage removed.\n(this is not an actual message)"), width)
	} else {
		writePreview(&b, format.Preview(s.ReplacementText, s.ReplacementJSON), width)
	}
	fmt.Fprintf(&b, "New message place: %s (%s)", s.DestinationPlace.Name, s.DestinationPlace.FriendlyName)
	if s.SourcePlace.ChatLike {
		fmt.Fprintf(&b, " (%s)", editor.ActionEditDestination)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Actions: %s | %s\n", editor.ActionCommit, editor.ActionCancel)

	c.printf("%s", b.String())
}

func writePreview(b *strings.Builder, text string, width int) {
	for _, line := range format.Wrap(text, width) {
		b.WriteString("  ")
		b.WriteString(format.Untranslate(line))
		b.WriteString("\n")
	}
}

func (c *Console) printf(f string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, f, args...)
}

func shortID(user uuid.UUID) string {
	return user.String()[:8]
}
