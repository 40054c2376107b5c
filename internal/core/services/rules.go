package services

import (
	"fmt"
	"time"

	"message-editor/internal/domain"
	"message-editor/internal/ports"
)

// BuildRule превращает сохраненную запись в скомпилированное правило.
// Любая ошибка возвращается как *domain.RuleLoadError.
func BuildRule(record ports.RuleRecord, registry *domain.PlaceRegistry, timeout time.Duration) (*domain.EditRule, error) {
	sourcePlace, err := resolvePlace(registry, record.SourcePlace)
	if err != nil {
		return nil, &domain.RuleLoadError{Name: record.Name, Err: err}
	}
	destinationPlace, err := resolvePlace(registry, record.DestinationPlace)
	if err != nil {
		return nil, &domain.RuleLoadError{Name: record.Name, Err: err}
	}

	rule, err := domain.NewEditRule(domain.RuleDefinition{
		Name:             record.Name,
		SourcePattern:    record.SourcePattern,
		SourcePlace:      sourcePlace,
		Replacement:      record.Replacement,
		DestinationPlace: destinationPlace,
	}, timeout)
	if err != nil {
		return nil, &domain.RuleLoadError{Name: record.Name, Err: err}
	}
	return rule, nil
}

// ToRecord возвращает запись для сохранения правила.
func ToRecord(rule *domain.EditRule) ports.RuleRecord {
	record := ports.RuleRecord{
		Name:          rule.Name,
		SourcePattern: rule.SourcePattern,
		Replacement:   rule.Replacement,
	}
	if rule.SourcePlace != nil {
		record.SourcePlace = rule.SourcePlace.Name
	}
	if rule.DestinationPlace != nil {
		record.DestinationPlace = rule.DestinationPlace.Name
	}
	return record
}

func resolvePlace(registry *domain.PlaceRegistry, name string) (*domain.Place, error) {
	if name == "" {
		return nil, nil
	}
	place, ok := registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownPlace, name)
	}
	return &place, nil
}
