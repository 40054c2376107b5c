package ports

import (
	"context"

	"message-editor/internal/domain"

	"github.com/google/uuid"
)

// RuleRecord — сохраненное правило в том виде, в каком оно лежит в хранилище.
// Места записываются по имени (GAME_CHAT); пустая строка означает отсутствие места.
type RuleRecord struct {
	Name             string `yaml:"-" json:"name"`
	SourcePattern    string `yaml:"source-pattern" json:"source_pattern"`
	SourcePlace      string `yaml:"source-place,omitempty" json:"source_place,omitempty"`
	Replacement      string `yaml:"replacement" json:"replacement"`
	DestinationPlace string `yaml:"destination-place,omitempty" json:"destination_place,omitempty"`
}

// RuleStore определяет долговременное хранилище правил, по одному правилу на имя.
type RuleStore interface {
	// LoadAll загружает все правила в порядке применения.
	// Ошибки отдельных записей возвращаются как *domain.RuleLoadError и не прерывают загрузку.
	LoadAll(ctx context.Context) ([]RuleRecord, []error)
	// Save сохраняет новое правило.
	Save(ctx context.Context, record RuleRecord) error
	// Exists сообщает, занято ли имя.
	Exists(ctx context.Context, name string) (bool, error)
}

// PlaceholderExpander подставляет внешние плейсхолдеры в текст для конкретного игрока.
type PlaceholderExpander interface {
	Expand(user uuid.UUID, text string) (string, error)
}

// IDGenerator создает идентификаторы обработанных сообщений.
type IDGenerator interface {
	Generate(place domain.Place, text string) string
}

// Cue — звуковой сигнал обратной связи.
type Cue int

const (
	// CuePositive подтверждает действие.
	CuePositive Cue = iota
	// CueNegative сообщает о неверном вводе.
	CueNegative
	// CueAttention сопровождает список вариантов, из которых нужно выбрать.
	CueAttention
)

func (c Cue) String() string {
	switch c {
	case CuePositive:
		return "positive"
	case CueNegative:
		return "negative"
	case CueAttention:
		return "attention"
	default:
		return "unknown"
	}
}

// Notifier доставляет пользователю текстовые сообщения и звуковые сигналы.
type Notifier interface {
	Notify(user uuid.UUID, message string)
	PlayCue(user uuid.UUID, cue Cue)
}

// MenuPresenter показывает и закрывает меню редактора правила.
type MenuPresenter interface {
	OpenMenu(user uuid.UUID, session domain.EditSession)
	CloseMenu(user uuid.UUID)
}

// Packet — пакет платформы в обобщенном виде: тип и произвольные поля.
type Packet struct {
	Type   string         `json:"type"`
	Fields map[string]any `json:"fields"`
}

// PacketClassifier определяет место, к которому относится пакет.
type PacketClassifier interface {
	Classify(packet *Packet) (domain.Place, bool)
}

// PlaceCodec читает и записывает текст внутри пакета одного места.
type PlaceCodec interface {
	Extract(packet *Packet) (text string, isJSON bool, ok bool)
	Inject(packet *Packet, place domain.Place, text string, isJSON bool) error
}
