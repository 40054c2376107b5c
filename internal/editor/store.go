package editor

import (
	"sync"

	"message-editor/internal/domain"

	"github.com/google/uuid"
)

type sessionEntry struct {
	mu      sync.Mutex
	session domain.EditSession
}

// SessionStore — потокобезопасное in-memory хранилище сессий редактирования,
// не более одной сессии на пользователя. Изменения сессии одного пользователя
// не блокируют сессии других.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*sessionEntry
}

// NewSessionStore создает новый экземпляр SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[uuid.UUID]*sessionEntry),
	}
}

// Put сохраняет сессию пользователя.
// Если у пользователя уже есть сессия, она будет перезаписана.
func (s *SessionStore) Put(user uuid.UUID, session domain.EditSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[user] = &sessionEntry{session: session}
}

// Get возвращает копию сессии пользователя.
func (s *SessionStore) Get(user uuid.UUID) (domain.EditSession, bool) {
	e, ok := s.entry(user)
	if !ok {
		return domain.EditSession{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session, true
}

// Update изменяет сессию пользователя под ее собственной блокировкой.
// Возвращает false, если сессии нет.
func (s *SessionStore) Update(user uuid.UUID, fn func(session *domain.EditSession)) bool {
	e, ok := s.entry(user)
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.session)
	return true
}

// Delete удаляет сессию пользователя.
func (s *SessionStore) Delete(user uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[user]; !ok {
		return false
	}
	delete(s.sessions, user)
	return true
}

// Clear удаляет все сессии и возвращает пользователей, у которых они были.
func (s *SessionStore) Clear() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]uuid.UUID, 0, len(s.sessions))
	for user := range s.sessions {
		users = append(users, user)
	}
	s.sessions = make(map[uuid.UUID]*sessionEntry)
	return users
}

// Len возвращает количество открытых сессий.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) entry(user uuid.UUID) (*sessionEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[user]
	return e, ok
}
