package engine

import (
	"message-editor/internal/domain"
	"message-editor/internal/ports"
)

// stubCodec — настраиваемая реализация PacketClassifier и PlaceCodec.
type stubCodec struct {
	classifyFunc func(packet *ports.Packet) (domain.Place, bool)
	extractFunc  func(packet *ports.Packet) (string, bool, bool)
	injectFunc   func(packet *ports.Packet, place domain.Place, text string, isJSON bool) error
}

func (s *stubCodec) Classify(packet *ports.Packet) (domain.Place, bool) {
	if s.classifyFunc != nil {
		return s.classifyFunc(packet)
	}
	return domain.GameChat, true
}

func (s *stubCodec) Extract(packet *ports.Packet) (string, bool, bool) {
	if s.extractFunc != nil {
		return s.extractFunc(packet)
	}
	text, ok := packet.Fields["message"].(string)
	return text, false, ok
}

func (s *stubCodec) Inject(packet *ports.Packet, place domain.Place, text string, isJSON bool) error {
	if s.injectFunc != nil {
		return s.injectFunc(packet, place, text, isJSON)
	}
	packet.Fields["message"] = text
	return nil
}
