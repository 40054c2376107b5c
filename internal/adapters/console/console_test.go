package console

import (
	"bytes"
	"strings"
	"testing"

	"message-editor/internal/domain"
	"message-editor/internal/editor"
	"message-editor/internal/ports"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var testUser = uuid.MustParse("12345678-0000-0000-0000-000000000000")

func TestConsole_Notify(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Notify(testUser, "§7Hello §eworld")
	c.PlayCue(testUser, ports.CueNegative)
	c.CloseMenu(testUser)

	assert.Equal(t, "[12345678] &7Hello &eworld\n[12345678] *negative*\n[12345678] --- menu closed ---\n", buf.String())
}

func TestConsole_OpenMenu(t *testing.T) {
	t.Run("превью переносит длинный текст с цветом", func(t *testing.T) {
		var buf bytes.Buffer
		c := NewConsole(&buf)
		c.SetWidth(12)

		s := editor.NewSession(domain.MessageData{ID: "GCabc", Place: domain.GameChat, Text: "§aone two three four"})
		c.OpenMenu(testUser, s)

		out := buf.String()
		assert.Contains(t, out, "File: edits/GCabc.yml (edit_file_name)")
		assert.Contains(t, out, "  &aone two\n  &athree four\n")
		assert.Contains(t, out, "Old message place: GAME_CHAT (Game Chat)")
		assert.Contains(t, out, "(edit_destination)")
		assert.True(t, strings.HasSuffix(out, "Actions: commit | cancel\n"))
	})

	t.Run("удаленное сообщение и нечатовое место", func(t *testing.T) {
		var buf bytes.Buffer
		c := NewConsole(&buf)

		s := editor.NewSession(domain.MessageData{ID: "Kabc", Place: domain.Kick, Text: "bye"})
		s.ReplacementText = ""
		c.OpenMenu(testUser, s)

		out := buf.String()
		assert.Contains(t, out, "  &cMessage removed.\n  &c(this is not an actual message)\n")
		assert.NotContains(t, out, "(edit_destination)")
	})

	t.Run("JSON показывается как обычный текст", func(t *testing.T) {
		var buf bytes.Buffer
		c := NewConsole(&buf)

		s := editor.NewSession(domain.MessageData{ID: "SCabc", Place: domain.SystemChat, Text: `{"text":"hi","color":"red"}`, JSON: true})
		c.OpenMenu(testUser, s)

		assert.Contains(t, buf.String(), "  &chi\n")
	})
}
