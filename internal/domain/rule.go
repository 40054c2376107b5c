package domain

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"
)

// DefaultMatchTimeout ограничивает время одного сопоставления шаблона.
const DefaultMatchTimeout = 250 * time.Millisecond

// RuleDefinition описывает правило редактирования до компиляции шаблона.
type RuleDefinition struct {
	// Name — имя единицы хранения, выбранное пользователем.
	Name string
	// SourcePattern — регулярное выражение, которое должно совпасть с текстом целиком.
	SourcePattern string
	// SourcePlace ограничивает правило одним местом; nil — любое место.
	SourcePlace *Place
	// Replacement — шаблон замены со ссылками $N на группы захвата.
	Replacement string
	// DestinationPlace перенаправляет результат в другое чатовое место.
	DestinationPlace *Place
}

// EditRule — скомпилированное правило редактирования. Создается только через NewEditRule.
type EditRule struct {
	RuleDefinition
	re *regexp2.Regexp
}

// NewEditRule компилирует шаблон правила. Шаблон всегда сопоставляется с текстом целиком.
func NewEditRule(def RuleDefinition, timeout time.Duration) (*EditRule, error) {
	re, err := CompileWhole(def.SourcePattern, timeout)
	if err != nil {
		return nil, err
	}
	return &EditRule{RuleDefinition: def, re: re}, nil
}

// CompileWhole компилирует выражение, привязанное к началу и концу текста.
func CompileWhole(pattern string, timeout time.Duration) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(`\A(?:`+pattern+`)\z`, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	if timeout <= 0 {
		timeout = DefaultMatchTimeout
	}
	re.MatchTimeout = timeout
	return re, nil
}

// Match сопоставляет шаблон правила с текстом целиком.
// Ошибка возвращается только при превышении времени сопоставления.
func (r *EditRule) Match(text string) (Match, bool, error) {
	return MatchWhole(r.re, text)
}

// AppliesTo сообщает, может ли правило применяться к тексту из указанного места.
// Правило без места применимо везде; места сравниваются с учетом перенаправления чата.
func (r *EditRule) AppliesTo(place Place, registry *PlaceRegistry) bool {
	if r.SourcePlace == nil {
		return true
	}
	return registry.SameTarget(*r.SourcePlace, place)
}

// Match — результат успешного сопоставления с группами захвата.
type Match struct {
	m *regexp2.Match
}

// MatchWhole выполняет сопоставление с уже скомпилированным выражением.
func MatchWhole(re *regexp2.Regexp, text string) (Match, bool, error) {
	m, err := re.FindStringMatch(text)
	if err != nil {
		return Match{}, false, err
	}
	if m == nil {
		return Match{}, false, nil
	}
	return Match{m: m}, true, nil
}

// GroupCount возвращает количество групп захвата без учета группы 0.
func (m Match) GroupCount() int {
	if m.m == nil {
		return 0
	}
	return m.m.GroupCount() - 1
}

// Group возвращает текст группы по номеру; группа 0 — весь текст.
func (m Match) Group(n int) (string, bool) {
	if m.m == nil {
		return "", false
	}
	g := m.m.GroupByNumber(n)
	if g == nil {
		return "", false
	}
	return g.String(), true
}

// NamedGroup возвращает текст именованной группы.
func (m Match) NamedGroup(name string) (string, bool) {
	if m.m == nil {
		return "", false
	}
	g := m.m.GroupByName(name)
	if g == nil {
		return "", false
	}
	return g.String(), true
}
