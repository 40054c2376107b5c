// Package placeholder содержит обработчик плейсхолдеров вида %name%.
package placeholder

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// StaticExpander подставляет значения плейсхолдеров %name% из общей таблицы
// и из таблиц отдельных пользователей. Значение пользователя важнее общего.
// Неизвестные плейсхолдеры остаются в тексте без изменений.
type StaticExpander struct {
	mu     sync.RWMutex
	global map[string]string
	users  map[uuid.UUID]map[string]string
}

// NewStaticExpander создает обработчик с общей таблицей значений.
func NewStaticExpander(values map[string]string) *StaticExpander {
	global := make(map[string]string, len(values))
	for k, v := range values {
		global[strings.ToLower(k)] = v
	}
	return &StaticExpander{
		global: global,
		users:  make(map[uuid.UUID]map[string]string),
	}
}

// SetUserValue задает значение плейсхолдера для одного пользователя.
func (e *StaticExpander) SetUserValue(user uuid.UUID, key, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	values, ok := e.users[user]
	if !ok {
		values = make(map[string]string)
		e.users[user] = values
	}
	values[strings.ToLower(key)] = value
}

// ForgetUser удаляет значения пользователя.
func (e *StaticExpander) ForgetUser(user uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.users, user)
}

// Expand подставляет значения в текст. %player_uuid% всегда раскрывается
// в идентификатор пользователя.
func (e *StaticExpander) Expand(user uuid.UUID, text string) (string, error) {
	if !strings.Contains(text, "%") {
		return text, nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	var b strings.Builder
	b.Grow(len(text))
	for {
		start := strings.IndexByte(text, '%')
		if start < 0 {
			break
		}
		end := strings.IndexByte(text[start+1:], '%')
		if end < 0 {
			break
		}
		end += start + 1

		key := text[start+1 : end]
		value, ok := e.lookup(user, key)
		if !ok {
			// Закрывающий знак может открывать следующий плейсхолдер.
			b.WriteString(text[:end])
			text = text[end:]
			continue
		}
		b.WriteString(text[:start])
		b.WriteString(value)
		text = text[end+1:]
	}
	b.WriteString(text)
	return b.String(), nil
}

func (e *StaticExpander) lookup(user uuid.UUID, key string) (string, bool) {
	if key == "" || strings.ContainsAny(key, " \t\n") {
		return "", false
	}
	key = strings.ToLower(key)
	if key == "player_uuid" {
		return user.String(), true
	}
	if v, ok := e.users[user][key]; ok {
		return v, true
	}
	v, ok := e.global[key]
	return v, ok
}
