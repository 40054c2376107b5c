package editor

import (
	"testing"

	"message-editor/internal/domain"
	"message-editor/internal/format"
	"message-editor/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionFor(place domain.Place, text string) domain.EditSession {
	return NewSession(domain.MessageData{ID: place.ID + "abcdefghij", Place: place, Text: text, JSON: format.IsJSON(text)})
}

// run последовательно применяет вводы и возвращает итоговую сессию и эффекты последнего шага.
func run(t *testing.T, m *Machine, s domain.EditSession, inputs ...Input) (domain.EditSession, []Effect) {
	t.Helper()
	var effects []Effect
	for _, in := range inputs {
		var handled bool
		s, effects, handled = m.Transition(s, in)
		require.True(t, handled, "input %+v was not handled", in)
	}
	return s, effects
}

func kinds(effects []Effect) []EffectKind {
	out := make([]EffectKind, 0, len(effects))
	for _, e := range effects {
		out = append(out, e.Kind)
	}
	return out
}

func TestNewSession(t *testing.T) {
	s := NewSession(domain.MessageData{ID: "GCqwerty", Place: domain.GameChat, Text: "Price: $5 (today)"})

	assert.Equal(t, "Price: $5 (today)", s.OriginalText)
	assert.Equal(t, "Price: $5 (today)", s.SourceText)
	assert.Equal(t, `Price: \$5 \(today\)`, s.SourcePattern)
	assert.Equal(t, "Price: $5 (today)", s.ReplacementText)
	assert.Equal(t, domain.GameChat, s.SourcePlace)
	assert.Equal(t, domain.GameChat, s.DestinationPlace)
	assert.Equal(t, "GCqwerty", s.FileName)
	assert.Equal(t, domain.ModeIdle, s.Mode)
}

func TestValidFileName(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "идентификатор сообщения", input: "GCqW-e_0rT", want: true},
		{name: "точки и цифры", input: "welcome.v2", want: true},
		{name: "пустое имя", input: "", want: false},
		{name: "решетка в начале", input: "#disabled", want: false},
		{name: "пробел", input: "a b", want: false},
		{name: "разделитель пути", input: "../edit", want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ValidFileName(tc.input))
		})
	}
}

func TestMachine_IdleLinesAreNotConsumed(t *testing.T) {
	m := NewMachine(domain.NewPlaceRegistry(domain.VersionBountifulUpdate))
	s := sessionFor(domain.GameChat, "hello")

	next, effects, handled := m.Transition(s, LineInput("done"))
	assert.False(t, handled)
	assert.Empty(t, effects)
	assert.Equal(t, s, next)
}

func TestMachine_SourceEditing(t *testing.T) {
	m := NewMachine(domain.NewPlaceRegistry(domain.VersionBountifulUpdate))

	t.Run("ключ и значение заменяют первое вхождение", func(t *testing.T) {
		s := sessionFor(domain.GameChat, "Hello, world! world")

		s, effects := run(t, m, s, ActionInput(ActionEditSource))
		assert.Equal(t, domain.ModeEditingSourceKey, s.Mode)
		assert.Equal(t, []EffectKind{EffectCloseMenu, EffectPlayCue, EffectNotify}, kinds(effects))

		s, effects = run(t, m, s, LineInput("world"))
		assert.Equal(t, domain.ModeEditingSourceValue, s.Mode)
		assert.Equal(t, "world", s.SourceKey)
		assert.Equal(t, []EffectKind{EffectPlayCue, EffectNotify}, kinds(effects))

		s, effects = run(t, m, s, LineInput(`(\w+)`))
		assert.Equal(t, domain.ModeEditingSourceKey, s.Mode)
		assert.Empty(t, s.SourceKey)
		assert.Equal(t, `Hello, (\w+)! world`, s.SourceText)
		assert.Equal(t, `Hello\, (\w+)! world`, s.SourcePattern)
		assert.False(t, s.SourceJSON)
		require.Len(t, effects, 3)
		assert.Equal(t, ports.CuePositive, effects[0].Cue)
		assert.Contains(t, effects[1].Message, "The first occurence of")

		s, effects = run(t, m, s, LineInput("done"))
		assert.Equal(t, domain.ModeIdle, s.Mode)
		assert.Equal(t, []EffectKind{EffectOpenMenu}, kinds(effects))
	})

	t.Run("значение остается регулярным выражением", func(t *testing.T) {
		s := sessionFor(domain.GameChat, "Price: 1.5")
		s, _ = run(t, m, s, ActionInput(ActionEditSource), LineInput("1.5"), LineInput("2.5"))
		assert.Equal(t, "Price: 2.5", s.SourceText)
		assert.Equal(t, "Price: 2.5", s.SourcePattern)

		re, err := domain.CompileWhole(s.SourcePattern, 0)
		require.NoError(t, err)
		for _, text := range []string{"Price: 2.5", "Price: 2x5"} {
			_, ok, err := domain.MatchWhole(re, text)
			require.NoError(t, err)
			assert.True(t, ok, text)
		}
	})

	t.Run("обратная косая черта в тексте не удваивается", func(t *testing.T) {
		s := sessionFor(domain.GameChat, "path X")
		s, _ = run(t, m, s, ActionInput(ActionEditSource), LineInput("X"), LineInput(`C:\dir (x`))
		assert.Equal(t, `path C:\dir (x`, s.SourceText)
		assert.Equal(t, `path C:\dir (x`, s.SourcePattern)

		_, err := domain.CompileWhole(s.SourcePattern, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidPattern)
	})

	t.Run("цветовые коды переводятся в тексте и шаблоне", func(t *testing.T) {
		s := sessionFor(domain.GameChat, "Hi")
		s, _ = run(t, m, s, ActionInput(ActionEditSource), LineInput("Hi"), LineInput("&aHi"))

		assert.Equal(t, "§aHi", s.SourceText)
		assert.Equal(t, "§aHi", s.SourcePattern)
	})

	t.Run("JSON-разметка сохраняется как есть", func(t *testing.T) {
		s := sessionFor(domain.SystemChat, `{"text":"Hi"}`)
		require.True(t, s.SourceJSON)

		s, _ = run(t, m, s, ActionInput(ActionEditSource), LineInput("Hi"), LineInput("Yo"))
		assert.Equal(t, `{"text":"Yo"}`, s.SourceText)
		assert.Equal(t, `\{"text":"Yo"\}`, s.SourcePattern)
		assert.True(t, s.SourceJSON)
	})

	t.Run("done на шаге значения сбрасывает ключ", func(t *testing.T) {
		s := sessionFor(domain.GameChat, "Hi")
		s, _ = run(t, m, s, ActionInput(ActionEditSource), LineInput("Hi"), LineInput("done"))

		assert.Equal(t, domain.ModeIdle, s.Mode)
		assert.Empty(t, s.SourceKey)
		assert.Equal(t, "Hi", s.SourceText)
	})
}

func TestMachine_ReplacementEditing(t *testing.T) {
	m := NewMachine(domain.NewPlaceRegistry(domain.VersionBountifulUpdate))

	t.Run("многострочный ввод склеивается без разделителя", func(t *testing.T) {
		s := sessionFor(domain.GameChat, "hello")

		s, effects := run(t, m, s, ActionInput(ActionEditReplacement))
		assert.Equal(t, domain.ModeEditingReplacement, s.Mode)
		assert.Len(t, effects, 4, "для чатового места добавляется подсказка про remove")

		s, _ = run(t, m, s, LineInput("&aBye, "), LineInput("friend"))
		assert.Equal(t, "&aBye, friend", s.ReplacementBuffer)
		assert.Equal(t, "hello", s.ReplacementText)

		s, effects = run(t, m, s, LineInput("done"))
		assert.Equal(t, domain.ModeIdle, s.Mode)
		assert.Equal(t, "§aBye, friend", s.ReplacementText)
		assert.False(t, s.ReplacementJSON)
		assert.Empty(t, s.ReplacementBuffer)
		assert.Equal(t, []EffectKind{EffectOpenMenu}, kinds(effects))
	})

	t.Run("done без ввода оставляет текст", func(t *testing.T) {
		s := sessionFor(domain.GameChat, "hello")
		s, _ = run(t, m, s, ActionInput(ActionEditReplacement), LineInput("done"))
		assert.Equal(t, "hello", s.ReplacementText)
	})

	t.Run("JSON в новом тексте", func(t *testing.T) {
		s := sessionFor(domain.GameChat, "hello")
		s, _ = run(t, m, s, ActionInput(ActionEditReplacement), LineInput(`{"text":"&ahi"}`), LineInput("done"))
		assert.Equal(t, `{"text":"&ahi"}`, s.ReplacementText)
		assert.True(t, s.ReplacementJSON)
	})

	t.Run("remove удаляет сообщение в чатовом месте", func(t *testing.T) {
		s := sessionFor(domain.ActionBar, "hello")
		s, effects := run(t, m, s, ActionInput(ActionEditReplacement), LineInput("remove"))

		assert.Equal(t, domain.ModeIdle, s.Mode)
		assert.Empty(t, s.ReplacementText)
		assert.False(t, s.ReplacementJSON)
		assert.Equal(t, []EffectKind{EffectOpenMenu}, kinds(effects))
	})

	t.Run("remove после ввода считается текстом", func(t *testing.T) {
		s := sessionFor(domain.GameChat, "hello")
		s, _ = run(t, m, s, ActionInput(ActionEditReplacement), LineInput("please "), LineInput("remove"))

		assert.Equal(t, domain.ModeEditingReplacement, s.Mode)
		assert.Equal(t, "please remove", s.ReplacementBuffer)
	})

	t.Run("remove вне чата считается текстом", func(t *testing.T) {
		s := sessionFor(domain.Kick, "You were kicked")
		s, effects := run(t, m, s, ActionInput(ActionEditReplacement))
		assert.Len(t, effects, 3)

		s, _ = run(t, m, s, LineInput("remove"))
		assert.Equal(t, domain.ModeEditingReplacement, s.Mode)
		assert.Equal(t, "remove", s.ReplacementBuffer)
	})

	t.Run("замена части нового текста", func(t *testing.T) {
		s := sessionFor(domain.GameChat, "Hello, world!")

		s, _ = run(t, m, s, ActionInput(ActionEditReplacementKey))
		assert.Equal(t, domain.ModeEditingReplacementKey, s.Mode)

		s, _ = run(t, m, s, LineInput("world"))
		assert.Equal(t, domain.ModeEditingReplacementValue, s.Mode)

		s, _ = run(t, m, s, LineInput(`&c$1 \o/`))
		assert.Equal(t, domain.ModeEditingReplacementKey, s.Mode)
		assert.Equal(t, `Hello, §c$1 \o/!`, s.ReplacementText)
		assert.Empty(t, s.ReplacementKey)

		s, _ = run(t, m, s, LineInput("done"))
		assert.Equal(t, domain.ModeIdle, s.Mode)
	})
}

func TestMachine_DestinationEditing(t *testing.T) {
	t.Run("место нельзя менять для нечатового сообщения", func(t *testing.T) {
		m := NewMachine(domain.NewPlaceRegistry(domain.VersionBountifulUpdate))
		s := sessionFor(domain.Kick, "bye")

		next, effects := run(t, m, s, ActionInput(ActionEditDestination))
		assert.Equal(t, s, next)
		require.Len(t, effects, 2)
		assert.Equal(t, ports.CueNegative, effects[0].Cue)
		assert.Contains(t, effects[1].Message, "You cannot change new message place")
	})

	t.Run("выбор места из списка", func(t *testing.T) {
		m := NewMachine(domain.NewPlaceRegistry(domain.VersionBountifulUpdate))
		s := sessionFor(domain.GameChat, "hi")

		s, effects := run(t, m, s, ActionInput(ActionEditDestination))
		assert.Equal(t, domain.ModeEditingDestinationPlace, s.Mode)
		require.Len(t, effects, 7)
		assert.Contains(t, effects[4].Message, "GAME_CHAT")
		assert.Contains(t, effects[6].Message, "ACTION_BAR")

		s, effects = run(t, m, s, LineInput("nowhere"))
		assert.Equal(t, domain.ModeEditingDestinationPlace, s.Mode)
		assert.Equal(t, ports.CueNegative, effects[0].Cue)
		assert.Contains(t, effects[1].Message, "nowhere")

		s, effects = run(t, m, s, LineInput("kick"))
		assert.Equal(t, domain.ModeEditingDestinationPlace, s.Mode)
		assert.Equal(t, ports.CueAttention, effects[0].Cue)
		assert.Len(t, effects, 6)

		s, effects = run(t, m, s, LineInput("Action Bar"))
		assert.Equal(t, domain.ModeIdle, s.Mode)
		assert.Equal(t, domain.ActionBar, s.DestinationPlace)
		assert.Equal(t, []EffectKind{EffectOpenMenu}, kinds(effects))
	})

	t.Run("игровой чат перенаправляется в системный", func(t *testing.T) {
		m := NewMachine(domain.NewPlaceRegistry(domain.VersionWildUpdate))
		s := sessionFor(domain.SystemChat, "hi")

		s, effects := run(t, m, s, ActionInput(ActionEditDestination))
		require.Len(t, effects, 6)

		s, _ = run(t, m, s, LineInput("GAME_CHAT"))
		assert.Equal(t, domain.SystemChat, s.DestinationPlace)
	})

	t.Run("неподдерживаемое место", func(t *testing.T) {
		m := NewMachine(domain.NewPlaceRegistry(domain.VersionBountifulUpdate))
		s := sessionFor(domain.GameChat, "hi")

		s, effects := run(t, m, s, ActionInput(ActionEditDestination), LineInput("boss_bar"))
		assert.Equal(t, domain.ModeEditingDestinationPlace, s.Mode)
		assert.Contains(t, effects[1].Message, "not supported")
	})
}

func TestMachine_FileNameEditing(t *testing.T) {
	m := NewMachine(domain.NewPlaceRegistry(domain.VersionBountifulUpdate))
	s := sessionFor(domain.GameChat, "hi")

	s, _ = run(t, m, s, ActionInput(ActionEditFileName))
	assert.Equal(t, domain.ModeEditingFileName, s.Mode)

	s, effects := run(t, m, s, LineInput("#hidden"))
	assert.Equal(t, domain.ModeEditingFileName, s.Mode)
	assert.Equal(t, ports.CueNegative, effects[0].Cue)
	assert.Equal(t, "GCabcdefghij", s.FileName)

	s, effects = run(t, m, s, LineInput("  welcome.v2 "))
	assert.Equal(t, domain.ModeIdle, s.Mode)
	assert.Equal(t, "welcome.v2", s.FileName)
	assert.Equal(t, []EffectKind{EffectPlayCue, EffectNotify, EffectOpenMenu}, kinds(effects))
}

func TestMachine_CommitAndCancel(t *testing.T) {
	m := NewMachine(domain.NewPlaceRegistry(domain.VersionBountifulUpdate))
	s := sessionFor(domain.GameChat, "hi")

	_, effects := run(t, m, s, ActionInput(ActionCommit))
	assert.Equal(t, []EffectKind{EffectCommit}, kinds(effects))

	_, effects = run(t, m, s, ActionInput(ActionCancel))
	assert.Equal(t, []EffectKind{EffectCloseMenu, EffectPlayCue, EffectDiscard}, kinds(effects))
}

func TestNotifyUsesPrefix(t *testing.T) {
	e := notify("&7text")
	assert.Equal(t, "§8[§6Message Editor§8] §7text", e.Message)
}

func TestParseAction(t *testing.T) {
	a, ok := ParseAction("EDIT_SOURCE")
	require.True(t, ok)
	assert.Equal(t, ActionEditSource, a)
	assert.Equal(t, "edit_source", a.String())

	_, ok = ParseAction("explode")
	assert.False(t, ok)
}
