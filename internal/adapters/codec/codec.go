// Package codec разбирает пакеты платформы в обобщенном JSON-представлении,
// определяет их место и читает или заменяет в них текст.
package codec

import (
	"encoding/json"
	"fmt"

	"message-editor/internal/domain"
	"message-editor/internal/format"
	"message-editor/internal/ports"
)

// Типы пакетов.
const (
	TypeChat                = "chat"
	TypeSystemChat          = "system_chat"
	TypeKick                = "kick"
	TypeDisconnect          = "disconnect"
	TypeBossBar             = "boss_bar"
	TypeScoreboardObjective = "scoreboard_objective"
	TypeScoreboardScore     = "scoreboard_score"
	TypeOpenWindow          = "open_window"
	TypeItemName            = "item_name"
	TypeItemLore            = "item_lore"
	TypeEntityName          = "entity_name"
)

// Поля пакетов.
const (
	FieldMessage  = "message"
	FieldPosition = "position"
	FieldOverlay  = "overlay"
	FieldJSON     = "json"
)

// Позиции текста в пакете чата.
const (
	PositionChat      = 0
	PositionSystem    = 1
	PositionActionBar = 2
)

type layout struct {
	field string
	place domain.Place
}

var layouts = map[string]layout{
	TypeKick:                {field: "reason", place: domain.Kick},
	TypeDisconnect:          {field: "reason", place: domain.Disconnect},
	TypeBossBar:             {field: "title", place: domain.BossBar},
	TypeScoreboardObjective: {field: "title", place: domain.ScoreboardTitle},
	TypeScoreboardScore:     {field: "entry", place: domain.ScoreboardEntry},
	TypeOpenWindow:          {field: "title", place: domain.InventoryTitle},
	TypeItemName:            {field: "name", place: domain.InventoryItemName},
	TypeItemLore:            {field: "lore", place: domain.InventoryItemLore},
	TypeEntityName:          {field: "custom_name", place: domain.EntityName},
}

// Codec реализует интерфейсы PacketClassifier и PlaceCodec для пакетов,
// описанных в этом пакете.
type Codec struct{}

// NewCodec создает новый экземпляр Codec.
func NewCodec() *Codec {
	return &Codec{}
}

// Decode преобразует JSON в пакет.
func (c *Codec) Decode(data []byte) (*ports.Packet, error) {
	var packet ports.Packet
	if err := json.Unmarshal(data, &packet); err != nil {
		return nil, fmt.Errorf("failed to unmarshal json: %w", err)
	}
	if packet.Type == "" {
		return nil, fmt.Errorf("packet type is required")
	}
	if packet.Fields == nil {
		packet.Fields = make(map[string]any)
	}
	return &packet, nil
}

// Encode преобразует пакет в JSON.
func (c *Codec) Encode(packet *ports.Packet) ([]byte, error) {
	data, err := json.Marshal(packet)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json: %w", err)
	}
	return data, nil
}

// Classify определяет место пакета.
func (c *Codec) Classify(packet *ports.Packet) (domain.Place, bool) {
	if packet == nil {
		return domain.Place{}, false
	}
	switch packet.Type {
	case TypeChat:
		switch position(packet) {
		case PositionChat:
			return domain.GameChat, true
		case PositionSystem:
			return domain.SystemChat, true
		case PositionActionBar:
			return domain.ActionBar, true
		}
		return domain.Place{}, false
	case TypeSystemChat:
		if overlay, _ := packet.Fields[FieldOverlay].(bool); overlay {
			return domain.ActionBar, true
		}
		return domain.SystemChat, true
	}
	s, ok := layouts[packet.Type]
	return s.place, ok
}

// Extract возвращает текст пакета. ok равно false, если в пакете нет текста.
func (c *Codec) Extract(packet *ports.Packet) (text string, isJSON bool, ok bool) {
	field, known := textField(packet.Type)
	if !known {
		return "", false, false
	}
	text, ok = packet.Fields[field].(string)
	if !ok {
		return "", false, false
	}
	if flag, set := packet.Fields[FieldJSON].(bool); set {
		return text, flag, true
	}
	return text, format.IsJSON(text), true
}

// Inject записывает текст в пакет. Для пакетов чата место можно сменить на
// другое чатовое место; для остальных пакетов место должно совпадать.
func (c *Codec) Inject(packet *ports.Packet, place domain.Place, text string, isJSON bool) error {
	field, known := textField(packet.Type)
	if !known {
		return fmt.Errorf("unsupported packet type %q", packet.Type)
	}
	if packet.Fields == nil {
		packet.Fields = make(map[string]any)
	}

	switch packet.Type {
	case TypeChat:
		pos, err := chatPosition(place)
		if err != nil {
			return err
		}
		packet.Fields[FieldPosition] = pos
	case TypeSystemChat:
		if !place.ChatLike {
			return fmt.Errorf("cannot move %s packet to %s", packet.Type, place.Name)
		}
		packet.Fields[FieldOverlay] = place.Equal(domain.ActionBar)
	default:
		if current, _ := c.Classify(packet); !current.Equal(place) {
			return fmt.Errorf("cannot move %s packet to %s", packet.Type, place.Name)
		}
	}

	packet.Fields[field] = text
	packet.Fields[FieldJSON] = isJSON
	return nil
}

func textField(packetType string) (string, bool) {
	if packetType == TypeChat || packetType == TypeSystemChat {
		return FieldMessage, true
	}
	s, ok := layouts[packetType]
	return s.field, ok
}

func chatPosition(place domain.Place) (int, error) {
	switch {
	case place.Equal(domain.GameChat):
		return PositionChat, nil
	case place.Equal(domain.SystemChat):
		return PositionSystem, nil
	case place.Equal(domain.ActionBar):
		return PositionActionBar, nil
	}
	return 0, fmt.Errorf("cannot move chat packet to %s", place.Name)
}

// position читает позицию пакета чата; после разбора JSON числа имеют тип float64.
func position(packet *ports.Packet) int {
	switch v := packet.Fields[FieldPosition].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case nil:
		return PositionChat
	}
	return -1
}
