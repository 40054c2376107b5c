// Package engine объединяет сопоставление сообщений, редактор правил,
// хранилище и реестр мест в единый интерфейс для платформы.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"message-editor/internal/core/services"
	"message-editor/internal/domain"
	"message-editor/internal/editor"
	"message-editor/internal/format"
	"message-editor/internal/ports"

	"github.com/google/uuid"
)

// ErrNoCodec возвращается, если движок создан без кодека пакетов.
var ErrNoCodec = errors.New("packet codec is not configured")

// DefaultEditCommand — команда, которую выполняет клик по сообщению чата.
const DefaultEditCommand = "/message-editor edit"

const msgClickToEdit = "&7Click to start editing this message."

// PacketResult описывает, что платформа должна сделать с пакетом.
type PacketResult struct {
	// Handled равно false, если пакет не относится ни к одному месту или не содержит текста.
	Handled bool `json:"handled"`
	// Drop требует не отправлять пакет пользователю.
	Drop    bool           `json:"drop"`
	Outcome domain.Outcome `json:"outcome"`
}

// ReloadReport — итог перезагрузки правил.
type ReloadReport struct {
	Loaded         int     `json:"loaded"`
	Failed         []error `json:"-"`
	SessionsClosed int     `json:"sessions_closed"`
}

// PlaceStatus — состояние места для административных команд.
type PlaceStatus struct {
	Place     domain.Place `json:"place"`
	Supported bool         `json:"supported"`
	Analyzing bool         `json:"analyzing"`
	// Enabled равно false, если обработка пакетов места отключена конфигурацией.
	Enabled bool `json:"enabled"`
}

// Option определяет функциональную опцию для конфигурации движка.
type Option func(*Engine)

// WithLogger — опция для установки логгера.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMatchTimeout — опция для установки ограничения времени сопоставления
// шаблонов загружаемых правил.
func WithMatchTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithPacketCodec — опция для подключения разбора пакетов платформы.
func WithPacketCodec(classifier ports.PacketClassifier, codec ports.PlaceCodec) Option {
	return func(e *Engine) {
		e.classifier = classifier
		e.codec = codec
	}
}

// WithClickToEdit — опция, добавляющая к сообщениям чата подсказку и команду
// command <ID> по клику. Пустая команда отключает добавление.
func WithClickToEdit(command string) Option {
	return func(e *Engine) {
		e.editCommand = command
	}
}

// WithDisabledPlaces — опция, отключающая обработку пакетов указанных мест.
func WithDisabledPlaces(places ...domain.Place) Option {
	return func(e *Engine) {
		for _, p := range places {
			e.disabled[p.ID] = struct{}{}
		}
	}
}

// Engine — точка входа платформы: исходящие сообщения, строки чата,
// кнопки меню и административные команды.
type Engine struct {
	registry *domain.PlaceRegistry
	matcher  *services.MatchingService
	editor   *editor.Service
	rules    ports.RuleStore

	classifier ports.PacketClassifier
	codec      ports.PlaceCodec
	disabled   map[string]struct{}

	editCommand string
	timeout     time.Duration
	log         *slog.Logger
}

// New создает движок поверх сервиса сопоставления, редактора и хранилища правил.
func New(matcher *services.MatchingService, editorSvc *editor.Service, rules ports.RuleStore, opts ...Option) *Engine {
	e := &Engine{
		registry: matcher.Registry(),
		matcher:  matcher,
		editor:   editorSvc,
		rules:    rules,
		disabled: make(map[string]struct{}),
		timeout:  domain.DefaultMatchTimeout,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With(slog.String("component", "engine"))
	return e
}

// Registry возвращает реестр мест.
func (e *Engine) Registry() *domain.PlaceRegistry {
	return e.registry
}

// Editor возвращает сервис редактора.
func (e *Engine) Editor() *editor.Service {
	return e.editor
}

// LookupPlace ищет место по имени, дружественному имени или коду.
func (e *Engine) LookupPlace(name string) (domain.Place, bool) {
	return e.registry.Lookup(name)
}

// Session возвращает открытую сессию пользователя.
func (e *Engine) Session(user uuid.UUID) (domain.EditSession, bool) {
	return e.editor.Session(user)
}

// OnOutboundMessage обрабатывает текст, который платформа собирается показать пользователю.
func (e *Engine) OnOutboundMessage(user uuid.UUID, place domain.Place, text string) domain.Outcome {
	return e.attachEditEvents(e.matcher.Process(user, place, text))
}

// attachEditEvents оборачивает сообщение чата в разметку с командой редактирования.
// Метаданные сообщения остаются привязанными к тексту без разметки.
func (e *Engine) attachEditEvents(out domain.Outcome) domain.Outcome {
	if e.editCommand == "" || out.Suppressed {
		return out
	}
	if !out.Place.Equal(domain.GameChat) && !out.Place.Equal(domain.SystemChat) {
		return out
	}
	text, err := format.AttachEvents(out.Text, out.JSON,
		format.Translate(editor.Prefix+msgClickToEdit), e.editCommand+" "+out.MessageID)
	if err != nil {
		e.log.Warn("Failed to attach edit events", slog.String("id", out.MessageID), slog.Any("error", err))
		return out
	}
	out.Text = text
	out.JSON = true
	out.Changed = true
	return out
}

// PlaceEnabled сообщает, обрабатываются ли пакеты места.
func (e *Engine) PlaceEnabled(place domain.Place) bool {
	_, off := e.disabled[place.ID]
	return !off
}

// ProcessPacket определяет место пакета, обрабатывает его текст и записывает
// результат обратно в пакет. Пакет с пустым результатом помечается к отбрасыванию.
func (e *Engine) ProcessPacket(user uuid.UUID, packet *ports.Packet) (result PacketResult, err error) {
	if e.classifier == nil || e.codec == nil {
		return PacketResult{}, ErrNoCodec
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("Packet codec panicked", slog.Any("panic", r))
			result, err = PacketResult{}, fmt.Errorf("packet %q: codec panic: %v", packet.Type, r)
		}
	}()

	place, ok := e.classifier.Classify(packet)
	if !ok || !e.PlaceEnabled(place) {
		return PacketResult{}, nil
	}
	text, _, ok := e.codec.Extract(packet)
	if !ok {
		return PacketResult{}, nil
	}

	out := e.attachEditEvents(e.matcher.Process(user, place, text))
	result = PacketResult{Handled: true, Outcome: out}
	if out.Suppressed {
		result.Drop = true
		return result, nil
	}
	if !out.Changed {
		return result, nil
	}
	if err := e.codec.Inject(packet, out.Place, out.Text, out.JSON); err != nil {
		return result, fmt.Errorf("inject into %s packet: %w", packet.Type, err)
	}
	return result, nil
}

// OnUserChatLine передает строку чата редактору. Возвращает true, если
// строка поглощена открытой сессией и не должна попасть в чат.
func (e *Engine) OnUserChatLine(ctx context.Context, user uuid.UUID, line string) bool {
	return e.editor.HandleLine(ctx, user, line)
}

// BeginEditSession открывает редактор для сообщения с указанным идентификатором.
func (e *Engine) BeginEditSession(user uuid.UUID, messageID string) (domain.EditSession, bool) {
	data, ok := e.matcher.MessageData(messageID)
	if !ok {
		return domain.EditSession{}, false
	}
	return e.editor.Begin(user, data), true
}

// HandleMenuAction передает редактору нажатие кнопки меню.
func (e *Engine) HandleMenuAction(ctx context.Context, user uuid.UUID, action editor.Action) bool {
	return e.editor.HandleAction(ctx, user, action)
}

// EndEditSession закрывает сессию пользователя без сохранения,
// например при выходе с сервера.
func (e *Engine) EndEditSession(user uuid.UUID) bool {
	return e.editor.End(user)
}

// ActivatePlace включает анализ места по имени.
func (e *Engine) ActivatePlace(name string) (domain.Place, error) {
	place, ok := e.registry.Lookup(name)
	if !ok {
		return domain.Place{}, fmt.Errorf("%w: %s", domain.ErrUnknownPlace, name)
	}
	if err := e.registry.Activate(place); err != nil {
		return place, fmt.Errorf("activate %s: %w", place.Name, err)
	}
	e.log.Info("Place analyzing activated", slog.String("place", place.Name))
	return place, nil
}

// DeactivatePlace выключает анализ места по имени.
func (e *Engine) DeactivatePlace(name string) (domain.Place, error) {
	place, ok := e.registry.Lookup(name)
	if !ok {
		return domain.Place{}, fmt.Errorf("%w: %s", domain.ErrUnknownPlace, name)
	}
	if err := e.registry.Deactivate(place); err != nil {
		return place, fmt.Errorf("deactivate %s: %w", place.Name, err)
	}
	e.log.Info("Place analyzing deactivated", slog.String("place", place.Name))
	return place, nil
}

// DeactivateAll выключает анализ всех мест.
func (e *Engine) DeactivateAll() int {
	n := e.registry.DeactivateAll()
	e.log.Info("Place analyzing deactivated for all places", slog.Int("count", n))
	return n
}

// Reload загружает правила из хранилища и заменяет ими текущий список.
// Неверные правила пропускаются, открытые сессии закрываются.
func (e *Engine) Reload(ctx context.Context) (ReloadReport, error) {
	if err := ctx.Err(); err != nil {
		return ReloadReport{}, err
	}

	records, loadErrs := e.rules.LoadAll(ctx)
	report := ReloadReport{Failed: append([]error(nil), loadErrs...)}

	rules := make([]*domain.EditRule, 0, len(records))
	for _, record := range records {
		rule, err := services.BuildRule(record, e.registry, e.timeout)
		if err != nil {
			report.Failed = append(report.Failed, err)
			continue
		}
		rules = append(rules, rule)
	}
	for _, err := range report.Failed {
		e.log.Warn("Rule skipped", slog.Any("error", err))
	}

	e.matcher.ReplaceRules(rules)
	report.Loaded = len(rules)
	report.SessionsClosed = e.editor.CloseAll()

	e.log.Info("Rules reloaded",
		slog.Int("loaded", report.Loaded),
		slog.Int("failed", len(report.Failed)),
		slog.Int("sessions_closed", report.SessionsClosed))
	return report, nil
}

// ClearCaches очищает кэши результатов и метаданных сообщений.
func (e *Engine) ClearCaches() {
	e.matcher.ClearCaches()
}

// StartCacheCleanup периодически удаляет просроченные записи кэшей,
// пока контекст не будет отменен.
func (e *Engine) StartCacheCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := e.matcher.CleanupExpired(); n > 0 {
					e.log.Debug("Expired cache entries removed", slog.Int("count", n))
				}
			}
		}
	}()
}

// Places возвращает все известные места с их состоянием.
func (e *Engine) Places() []PlaceStatus {
	places := e.registry.Places()
	out := make([]PlaceStatus, 0, len(places))
	for _, p := range places {
		out = append(out, PlaceStatus{
			Place:     p,
			Supported: e.registry.IsSupported(p),
			Analyzing: e.registry.IsAnalyzing(p),
			Enabled:   e.PlaceEnabled(p),
		})
	}
	return out
}

// Rules возвращает загруженные правила в порядке применения.
func (e *Engine) Rules() []ports.RuleRecord {
	rules := e.matcher.Rules()
	out := make([]ports.RuleRecord, 0, len(rules))
	for _, r := range rules {
		out = append(out, services.ToRecord(r))
	}
	return out
}

// Stats возвращает снимок состояния сервиса сопоставления.
func (e *Engine) Stats() services.Stats {
	return e.matcher.Stats()
}

// MessageData возвращает метаданные обработанного сообщения.
func (e *Engine) MessageData(id string) (domain.MessageData, bool) {
	return e.matcher.MessageData(id)
}
