package server

import (
	"context"
	"sync"
	"time"

	"message-editor/internal/domain"
	"message-editor/internal/ports"

	"github.com/google/uuid"
)

// EventKind — тип события для пользователя
type EventKind string

const (
	EventNotify    EventKind = "notify"
	EventCue       EventKind = "cue"
	EventMenuOpen  EventKind = "menu_open"
	EventMenuClose EventKind = "menu_close"
)

// Event — уведомление, сигнал или состояние меню, ожидающее доставки клиенту
type Event struct {
	Kind      EventKind           `json:"kind"`
	Message   string              `json:"message,omitempty"`
	Cue       string              `json:"cue,omitempty"`
	Session   *domain.EditSession `json:"session,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	ExpiresAt time.Time           `json:"-"` // Для автоматической очистки
}

// EventStore накапливает события редактора по пользователям, пока клиент
// платформы не заберет их. Реализует ports.Notifier и ports.MenuPresenter.
type EventStore struct {
	events map[uuid.UUID][]*Event
	mutex  sync.Mutex
	ttl    time.Duration

	// Now возвращает текущее время. Может быть подменена в тестах.
	Now func() time.Time
}

// NewEventStore создает новый экземпляр EventStore
func NewEventStore(ttl time.Duration) *EventStore {
	return &EventStore{
		events: make(map[uuid.UUID][]*Event),
		ttl:    ttl,
		Now:    time.Now,
	}
}

// Notify реализует ports.Notifier
func (es *EventStore) Notify(user uuid.UUID, message string) {
	es.push(user, &Event{Kind: EventNotify, Message: message})
}

// PlayCue реализует ports.Notifier
func (es *EventStore) PlayCue(user uuid.UUID, cue ports.Cue) {
	es.push(user, &Event{Kind: EventCue, Cue: cue.String()})
}

// OpenMenu реализует ports.MenuPresenter
func (es *EventStore) OpenMenu(user uuid.UUID, session domain.EditSession) {
	es.push(user, &Event{Kind: EventMenuOpen, Session: &session})
}

// CloseMenu реализует ports.MenuPresenter
func (es *EventStore) CloseMenu(user uuid.UUID) {
	es.push(user, &Event{Kind: EventMenuClose})
}

func (es *EventStore) push(user uuid.UUID, event *Event) {
	es.mutex.Lock()
	defer es.mutex.Unlock()

	now := es.Now()
	event.CreatedAt = now
	event.ExpiresAt = now.Add(es.ttl)
	es.events[user] = append(es.events[user], event)
}

// Drain возвращает непросроченные события пользователя в порядке появления и удаляет их
func (es *EventStore) Drain(user uuid.UUID) []Event {
	es.mutex.Lock()
	defer es.mutex.Unlock()

	pending := es.events[user]
	delete(es.events, user)

	now := es.Now()
	out := make([]Event, 0, len(pending))
	for _, event := range pending {
		if now.After(event.ExpiresAt) {
			continue
		}
		out = append(out, *event)
	}
	return out
}

// Len возвращает число ожидающих событий пользователя
func (es *EventStore) Len(user uuid.UUID) int {
	es.mutex.Lock()
	defer es.mutex.Unlock()
	return len(es.events[user])
}

// CleanupExpired удаляет просроченные события и возвращает их количество
func (es *EventStore) CleanupExpired() int {
	es.mutex.Lock()
	defer es.mutex.Unlock()

	now := es.Now()
	removed := 0
	for user, events := range es.events {
		kept := events[:0]
		for _, event := range events {
			if now.After(event.ExpiresAt) {
				removed++
				continue
			}
			kept = append(kept, event)
		}
		if len(kept) == 0 {
			delete(es.events, user)
			continue
		}
		es.events[user] = kept
	}
	return removed
}

// StartCleanupTicker запускает тикер для периодической очистки просроченных событий
func (es *EventStore) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				es.CleanupExpired()
			}
		}
	}()
}
