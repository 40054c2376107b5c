package services

import (
	"fmt"
	"sync"

	"message-editor/internal/domain"

	"github.com/google/uuid"
)

// MockPlaceholderExpander - мок-реализация PlaceholderExpander для тестирования
type MockPlaceholderExpander struct {
	ExpandFunc func(user uuid.UUID, text string) (string, error)
}

// Expand реализует интерфейс PlaceholderExpander
func (m *MockPlaceholderExpander) Expand(user uuid.UUID, text string) (string, error) {
	if m.ExpandFunc != nil {
		return m.ExpandFunc(user, text)
	}
	return text, nil
}

// sequentialIDGenerator выдает предсказуемые идентификаторы и считает вызовы.
type sequentialIDGenerator struct {
	mu    sync.Mutex
	calls int
}

func (g *sequentialIDGenerator) Generate(place domain.Place, _ string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return fmt.Sprintf("%s%08d", place.ID, g.calls)
}

func (g *sequentialIDGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}
