package editor

import (
	"context"
	"sync"

	"message-editor/internal/domain"
	"message-editor/internal/ports"

	"github.com/google/uuid"
)

// recordingNotifier запоминает все сообщения и сигналы по пользователям.
type recordingNotifier struct {
	mu       sync.Mutex
	messages map[uuid.UUID][]string
	cues     map[uuid.UUID][]ports.Cue
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		messages: make(map[uuid.UUID][]string),
		cues:     make(map[uuid.UUID][]ports.Cue),
	}
}

func (n *recordingNotifier) Notify(user uuid.UUID, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages[user] = append(n.messages[user], message)
}

func (n *recordingNotifier) PlayCue(user uuid.UUID, cue ports.Cue) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cues[user] = append(n.cues[user], cue)
}

func (n *recordingNotifier) Messages(user uuid.UUID) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages[user]...)
}

func (n *recordingNotifier) LastCue(user uuid.UUID) (ports.Cue, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	cues := n.cues[user]
	if len(cues) == 0 {
		return 0, false
	}
	return cues[len(cues)-1], true
}

// recordingMenus запоминает открытия и закрытия меню.
type recordingMenus struct {
	mu     sync.Mutex
	opened map[uuid.UUID]int
	closed map[uuid.UUID]int
	last   map[uuid.UUID]domain.EditSession
}

func newRecordingMenus() *recordingMenus {
	return &recordingMenus{
		opened: make(map[uuid.UUID]int),
		closed: make(map[uuid.UUID]int),
		last:   make(map[uuid.UUID]domain.EditSession),
	}
}

func (m *recordingMenus) OpenMenu(user uuid.UUID, session domain.EditSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened[user]++
	m.last[user] = session
}

func (m *recordingMenus) CloseMenu(user uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed[user]++
}

func (m *recordingMenus) Opened(user uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opened[user]
}

func (m *recordingMenus) Closed(user uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed[user]
}

// mockRuleStore — мок хранилища правил в памяти с настраиваемой ошибкой сохранения.
type mockRuleStore struct {
	mu      sync.Mutex
	saved   []ports.RuleRecord
	names   map[string]bool
	SaveErr error
}

func newMockRuleStore(existing ...string) *mockRuleStore {
	names := make(map[string]bool)
	for _, n := range existing {
		names[n] = true
	}
	return &mockRuleStore{names: names}
}

func (m *mockRuleStore) LoadAll(ctx context.Context) ([]ports.RuleRecord, []error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.RuleRecord(nil), m.saved...), nil
}

func (m *mockRuleStore) Save(ctx context.Context, record ports.RuleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.saved = append(m.saved, record)
	m.names[record.Name] = true
	return nil
}

func (m *mockRuleStore) Exists(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.names[name], nil
}

func (m *mockRuleStore) Saved() []ports.RuleRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.RuleRecord(nil), m.saved...)
}
