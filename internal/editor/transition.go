// Package editor реализует мастер создания правила: чистую функцию перехода
// между шагами, хранилище сессий и сервис, выполняющий эффекты переходов.
package editor

import (
	"fmt"
	"strings"

	"message-editor/internal/domain"
	"message-editor/internal/format"
	"message-editor/internal/ports"
)

// Prefix — префикс всех сообщений редактора до перевода цветовых кодов.
const Prefix = "&8[&6Message Editor&8] "

// DoneLine завершает текущий шаг мастера. Сравнение точное, с учетом регистра.
const DoneLine = "done"

// RemoveLine в режиме ввода нового текста удаляет сообщение целиком.
const RemoveLine = "remove"

// Action — нажатие кнопки меню редактора.
type Action int

const (
	ActionNone Action = iota
	ActionEditFileName
	ActionEditSource
	// ActionEditReplacement переводит в ввод нового текста целиком.
	ActionEditReplacement
	// ActionEditReplacementKey переводит в замену части нового текста.
	ActionEditReplacementKey
	ActionEditDestination
	ActionCommit
	ActionCancel
)

var actionNames = map[Action]string{
	ActionEditFileName:       "edit_file_name",
	ActionEditSource:         "edit_source",
	ActionEditReplacement:    "edit_replacement",
	ActionEditReplacementKey: "edit_replacement_key",
	ActionEditDestination:    "edit_destination",
	ActionCommit:             "commit",
	ActionCancel:             "cancel",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "none"
}

// ParseAction находит действие по имени, которое возвращает String.
func ParseAction(name string) (Action, bool) {
	for action, n := range actionNames {
		if strings.EqualFold(n, name) {
			return action, true
		}
	}
	return ActionNone, false
}

// Input — ввод пользователя: строка чата или нажатие кнопки меню.
type Input struct {
	Line   string
	Action Action
}

// LineInput создает ввод из строки чата.
func LineInput(line string) Input {
	return Input{Line: line}
}

// ActionInput создает ввод из нажатия кнопки.
func ActionInput(a Action) Input {
	return Input{Action: a}
}

// EffectKind — тип побочного эффекта перехода.
type EffectKind int

const (
	EffectNotify EffectKind = iota
	EffectPlayCue
	EffectOpenMenu
	EffectCloseMenu
	EffectCommit
	EffectDiscard
)

// Effect описывает действие, которое должен выполнить вызывающий код.
type Effect struct {
	Kind    EffectKind
	Message string
	Cue     ports.Cue
}

func notify(message string) Effect {
	return Effect{Kind: EffectNotify, Message: format.Translate(Prefix + message)}
}

func cue(c ports.Cue) Effect {
	return Effect{Kind: EffectPlayCue, Cue: c}
}

var (
	openMenu  = Effect{Kind: EffectOpenMenu}
	closeMenu = Effect{Kind: EffectCloseMenu}
)

const (
	msgSourceKey         = "&7Enter old message pattern key, that is what you want to replace, or enter '&edone&7' if you are done replacing everything you want."
	msgSourceValue       = "&7Now enter old message pattern value, that is what you want the key to be replaced with, or enter '&edone&7' if you are done replacing everything you want."
	msgReplacement       = "&7Enter new message. Enter '&edone&7' once you are done entering the new message."
	msgReplacementRemove = "&7You can also enter '&eremove&7' if you do not want the new message to be sent to the players (this will completely remove the message)."
	msgReplacementAdded  = "&7Message has been added. Continue if your message is longer and had to divide it into parts. Otherwise enter '&edone&7' to set the new message."
	msgReplacementKey    = "&7Enter new message key, that is what you want to replace, or enter '&edone&7' if you are done replacing everything you want."
	msgReplacementValue  = "&7Now enter new message value, that is what you want the key to be replaced with, or enter '&edone&7' if you are done replacing everything you want."
	msgDestination       = "&7Enter new message place, or enter '&edone&7' if you changed your mind and no longer want to edit message place."
	msgDestinationLocked = "&cYou cannot change new message place of this message."
	msgPlaceUnavailable  = "&cThis message place is not supported by your server or is unavailable."
	msgAvailablePlaces   = "&7Available message places:"
	msgFileName          = "&7Enter new file name, or enter '&edone&7' if you changed your mind and no longer want to edit file name."
	msgFileNameInvalid   = "&cFile name may only contain letters, digits, '&7.&c', '&7_&c' and '&7-&c' and cannot start with '&7#&c'."
	msgFileNameSet       = "&7File name has been set to '&e%s&7'."
	msgKeyReplaced       = "&7The first occurence of '&e%s&7' has been replaced with '&e%s&7'."
	msgUnknownPlace      = "&cCould not convert '&7%s&c' to a message place."
)

// NewSession создает сессию редактирования для обработанного сообщения.
func NewSession(data domain.MessageData) domain.EditSession {
	return domain.EditSession{
		OriginalText:     data.Text,
		OriginalJSON:     data.JSON,
		SourceText:       data.Text,
		SourcePattern:    format.QuoteSpecial(data.Text),
		SourceJSON:       data.JSON,
		SourcePlace:      data.Place,
		ReplacementText:  data.Text,
		ReplacementJSON:  data.JSON,
		DestinationPlace: data.Place,
		FileName:         data.ID,
		Mode:             domain.ModeIdle,
	}
}

// ValidFileName сообщает, может ли строка быть именем единицы хранения правила.
func ValidFileName(name string) bool {
	if name == "" || strings.HasPrefix(name, "#") {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// Machine вычисляет переходы мастера. Состояние сессии машина не хранит.
type Machine struct {
	registry *domain.PlaceRegistry
}

// NewMachine создает машину переходов для реестра мест платформы.
func NewMachine(registry *domain.PlaceRegistry) *Machine {
	return &Machine{registry: registry}
}

// Transition применяет ввод к сессии и возвращает новую сессию и эффекты.
// handled равно false, если строка чата не относится к мастеру и должна
// быть доставлена как обычное сообщение.
func (m *Machine) Transition(s domain.EditSession, in Input) (next domain.EditSession, effects []Effect, handled bool) {
	if in.Action != ActionNone {
		next, effects = m.onAction(s, in.Action)
		return next, effects, true
	}
	if s.Mode == domain.ModeIdle {
		return s, nil, false
	}
	if in.Line == DoneLine {
		next, effects = m.onDone(s)
		return next, effects, true
	}
	next, effects = m.onLine(s, in.Line)
	return next, effects, true
}

func (m *Machine) onAction(s domain.EditSession, a Action) (domain.EditSession, []Effect) {
	switch a {
	case ActionEditFileName:
		s.Mode = domain.ModeEditingFileName
		return s, []Effect{closeMenu, cue(ports.CuePositive), notify(msgFileName)}

	case ActionEditSource:
		s.Mode = domain.ModeEditingSourceKey
		s.SourceKey = ""
		return s, []Effect{closeMenu, cue(ports.CuePositive), notify(msgSourceKey)}

	case ActionEditReplacement:
		s.Mode = domain.ModeEditingReplacement
		s.ReplacementBuffer = ""
		effects := []Effect{closeMenu, cue(ports.CuePositive), notify(msgReplacement)}
		if s.DestinationPlace.ChatLike {
			effects = append(effects, notify(msgReplacementRemove))
		}
		return s, effects

	case ActionEditReplacementKey:
		s.Mode = domain.ModeEditingReplacementKey
		s.ReplacementKey = ""
		return s, []Effect{closeMenu, cue(ports.CuePositive), notify(msgReplacementKey)}

	case ActionEditDestination:
		if !s.SourcePlace.ChatLike {
			return s, []Effect{cue(ports.CueNegative), notify(msgDestinationLocked)}
		}
		s.Mode = domain.ModeEditingDestinationPlace
		effects := []Effect{closeMenu, cue(ports.CuePositive), notify(msgDestination), notify(msgAvailablePlaces)}
		return s, append(effects, m.availablePlaces()...)

	case ActionCommit:
		return s, []Effect{{Kind: EffectCommit}}

	case ActionCancel:
		return s, []Effect{closeMenu, cue(ports.CuePositive), {Kind: EffectDiscard}}
	}
	return s, nil
}

func (m *Machine) onDone(s domain.EditSession) (domain.EditSession, []Effect) {
	switch s.Mode {
	case domain.ModeEditingSourceKey, domain.ModeEditingSourceValue:
		s.SourceKey = ""
	case domain.ModeEditingReplacement:
		if s.ReplacementBuffer != "" {
			s.ReplacementText, s.ReplacementJSON = normalize(s.ReplacementBuffer)
			s.ReplacementBuffer = ""
		}
	case domain.ModeEditingReplacementKey, domain.ModeEditingReplacementValue:
		s.ReplacementKey = ""
	}
	s.Mode = domain.ModeIdle
	return s, []Effect{openMenu}
}

func (m *Machine) onLine(s domain.EditSession, line string) (domain.EditSession, []Effect) {
	switch s.Mode {
	case domain.ModeEditingFileName:
		name := strings.TrimSpace(line)
		if !ValidFileName(name) {
			return s, []Effect{cue(ports.CueNegative), notify(msgFileNameInvalid)}
		}
		s.FileName = name
		s.Mode = domain.ModeIdle
		return s, []Effect{cue(ports.CuePositive), notify(fmt.Sprintf(msgFileNameSet, name)), openMenu}

	case domain.ModeEditingSourceKey:
		s.SourceKey = line
		s.Mode = domain.ModeEditingSourceValue
		return s, []Effect{cue(ports.CuePositive), notify(msgSourceValue)}

	case domain.ModeEditingSourceValue:
		key, value := s.SourceKey, line
		// Значение попадает в шаблон как регулярное выражение, а в текст как есть.
		s.SourceText = strings.Replace(s.SourceText, key, value, 1)
		s.SourcePattern = strings.Replace(s.SourcePattern, format.QuoteSpecial(key), value, 1)
		if format.IsJSON(s.SourceText) {
			s.SourceJSON = true
		} else {
			s.SourceText = format.Translate(s.SourceText)
			s.SourcePattern = format.Translate(s.SourcePattern)
			s.SourceJSON = false
		}
		s.SourceKey = ""
		s.Mode = domain.ModeEditingSourceKey
		return s, []Effect{
			cue(ports.CuePositive),
			notify(fmt.Sprintf(msgKeyReplaced, key, value)),
			notify(msgSourceKey),
		}

	case domain.ModeEditingReplacement:
		if line == RemoveLine && s.ReplacementBuffer == "" && s.DestinationPlace.ChatLike {
			s.Mode = domain.ModeIdle
			s.ReplacementText = ""
			s.ReplacementJSON = false
			s.ReplacementBuffer = ""
			return s, []Effect{openMenu}
		}
		s.ReplacementBuffer += line
		return s, []Effect{notify(msgReplacementAdded), cue(ports.CuePositive)}

	case domain.ModeEditingReplacementKey:
		s.ReplacementKey = line
		s.Mode = domain.ModeEditingReplacementValue
		return s, []Effect{cue(ports.CuePositive), notify(msgReplacementValue)}

	case domain.ModeEditingReplacementValue:
		key, value := s.ReplacementKey, line
		s.ReplacementText, s.ReplacementJSON = normalize(strings.Replace(s.ReplacementText, key, value, 1))
		s.ReplacementKey = ""
		s.Mode = domain.ModeEditingReplacementKey
		return s, []Effect{
			cue(ports.CuePositive),
			notify(fmt.Sprintf(msgKeyReplaced, key, value)),
			notify(msgReplacementKey),
		}

	case domain.ModeEditingDestinationPlace:
		place, ok := m.registry.Lookup(strings.TrimSpace(line))
		if !ok {
			return s, []Effect{cue(ports.CueNegative), notify(fmt.Sprintf(msgUnknownPlace, line))}
		}
		if !m.registry.IsSupported(place) || !place.ChatLike {
			effects := []Effect{cue(ports.CueAttention), notify(msgPlaceUnavailable), notify(msgAvailablePlaces)}
			return s, append(effects, m.availablePlaces()...)
		}
		s.DestinationPlace = m.registry.Canonical(place)
		s.Mode = domain.ModeIdle
		return s, []Effect{openMenu}
	}
	return s, nil
}

func (m *Machine) availablePlaces() []Effect {
	places := m.registry.ChatPlaces()
	effects := make([]Effect, 0, len(places))
	for _, p := range places {
		effects = append(effects, notify(fmt.Sprintf("&7- &e%s &7(&e%s&7)", p.Name, p.FriendlyName)))
	}
	return effects
}

// normalize определяет, является ли текст JSON-разметкой; обычный текст
// получает переведенные цветовые коды.
func normalize(text string) (string, bool) {
	if format.IsJSON(text) {
		return text, true
	}
	return format.Translate(text), false
}
