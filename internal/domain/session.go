package domain

// EditMode — текущий шаг мастера создания правила.
type EditMode int

const (
	ModeIdle EditMode = iota
	ModeEditingFileName
	ModeEditingSourceKey
	ModeEditingSourceValue
	ModeEditingReplacement
	ModeEditingReplacementKey
	ModeEditingReplacementValue
	ModeEditingDestinationPlace
)

var editModeNames = map[EditMode]string{
	ModeIdle:                    "idle",
	ModeEditingFileName:         "editing_file_name",
	ModeEditingSourceKey:        "editing_source_key",
	ModeEditingSourceValue:      "editing_source_value",
	ModeEditingReplacement:      "editing_replacement",
	ModeEditingReplacementKey:   "editing_replacement_key",
	ModeEditingReplacementValue: "editing_replacement_value",
	ModeEditingDestinationPlace: "editing_destination_place",
}

func (m EditMode) String() string {
	if name, ok := editModeNames[m]; ok {
		return name
	}
	return "unknown"
}

// EditSession — временный контекст редактирования одного правила одним пользователем.
type EditSession struct {
	// OriginalText — текст сообщения, с которого начато редактирование.
	OriginalText string `json:"original_text"`
	OriginalJSON bool   `json:"original_json"`

	// SourceText — человекочитаемое представление исходного текста.
	SourceText string `json:"source_text"`
	// SourcePattern — экранированный шаблон, который станет шаблоном правила.
	SourcePattern string `json:"source_pattern"`
	SourceJSON    bool   `json:"source_json"`
	// SourceKey — ожидающий пары ключ замены в исходном тексте.
	SourceKey string `json:"source_key,omitempty"`
	// SourcePlace — место исходного сообщения; не меняется в ходе сессии.
	SourcePlace Place `json:"source_place"`

	ReplacementText string `json:"replacement_text"`
	ReplacementJSON bool   `json:"replacement_json"`
	// ReplacementBuffer накапливает строки в режиме многострочного ввода.
	ReplacementBuffer string `json:"replacement_buffer,omitempty"`
	ReplacementKey    string `json:"replacement_key,omitempty"`

	DestinationPlace Place `json:"destination_place"`

	// FileName — имя единицы хранения; по умолчанию равно идентификатору сообщения.
	FileName string   `json:"file_name"`
	Mode     EditMode `json:"mode"`
}

// MarshalText позволяет выводить шаг мастера по имени в JSON.
func (m EditMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
