// Package storage содержит реализации хранилища правил: каталог YAML-файлов,
// базу SQLite и хранилище в памяти.
package storage

import (
	"context"
	"fmt"
	"sync"

	"message-editor/internal/domain"
	"message-editor/internal/ports"
)

// MemoryStore реализует интерфейс RuleStore в памяти. Правила возвращаются
// в порядке добавления.
type MemoryStore struct {
	mu      sync.RWMutex
	records []ports.RuleRecord
}

// NewMemoryStore создает новый экземпляр MemoryStore с начальными правилами.
func NewMemoryStore(records ...ports.RuleRecord) *MemoryStore {
	s := &MemoryStore{}
	s.records = append(s.records, records...)
	return s
}

// LoadAll возвращает копию сохраненных правил.
func (s *MemoryStore) LoadAll(ctx context.Context) ([]ports.RuleRecord, []error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Возвращаем копию, чтобы вызывающий код не менял внутренний срез
	out := make([]ports.RuleRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Save добавляет правило. Повторное имя возвращает domain.ErrDuplicateFileName.
func (s *MemoryStore) Save(ctx context.Context, record ports.RuleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if r.Name == record.Name {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateFileName, record.Name)
		}
	}
	s.records = append(s.records, record)
	return nil
}

// Exists сообщает, сохранено ли правило с таким именем.
func (s *MemoryStore) Exists(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.Name == name {
			return true, nil
		}
	}
	return false, nil
}
