package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPlace возвращается, когда имя не соответствует ни одному месту.
	ErrUnknownPlace = errors.New("unknown place")
	// ErrPlaceNotSupported возвращается для мест, отсутствующих на текущей версии платформы.
	ErrPlaceNotSupported = errors.New("place is not supported on this platform version")
	// ErrPlaceAlreadyAnalyzed возвращается при повторном включении анализа.
	ErrPlaceAlreadyAnalyzed = errors.New("place is already being analyzed")
	// ErrPlaceNotAnalyzed возвращается при выключении анализа, который не был включен.
	ErrPlaceNotAnalyzed = errors.New("place is not being analyzed")
	// ErrInvalidPattern возвращается, если шаблон правила не компилируется.
	ErrInvalidPattern = errors.New("invalid source pattern")
	// ErrInvalidRuleName возвращается для недопустимых имен единицы хранения.
	ErrInvalidRuleName = errors.New("invalid rule name")
	// ErrDuplicateFileName возвращается, если правило с таким именем уже сохранено.
	ErrDuplicateFileName = errors.New("rule with this name already exists")
	// ErrPersistenceFailure возвращается, если правило не удалось сохранить.
	ErrPersistenceFailure = errors.New("failed to persist rule")
)

// RuleLoadError описывает правило, которое не удалось загрузить из хранилища.
type RuleLoadError struct {
	Name string
	Err  error
}

func (e *RuleLoadError) Error() string {
	return fmt.Sprintf("rule %q: %v", e.Name, e.Err)
}

func (e *RuleLoadError) Unwrap() error {
	return e.Err
}
