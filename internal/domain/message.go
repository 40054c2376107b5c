package domain

// CachedMessage — результат сопоставления текста с правилами.
// Rule равен nil, если ни одно правило не подошло.
type CachedMessage struct {
	Rule *EditRule
	Text string
}

// MessageData хранит метаданные обработанного сообщения
// для последующего открытия редактора по идентификатору.
type MessageData struct {
	ID    string `json:"id"`
	Place Place  `json:"place"`
	Text  string `json:"text"`
	JSON  bool   `json:"json"`
}

// Outcome — результат обработки исходящего сообщения.
type Outcome struct {
	Text      string `json:"text"`
	Place     Place  `json:"place"`
	MessageID string `json:"message_id,omitempty"`
	JSON      bool   `json:"json"`
	// Suppressed означает, что сообщение не должно доставляться игроку.
	Suppressed bool `json:"suppressed"`
	// Changed означает, что текст или место отличаются от исходных.
	Changed bool `json:"changed"`
}
