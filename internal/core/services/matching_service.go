package services

import (
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"message-editor/internal/cache"
	"message-editor/internal/domain"
	"message-editor/internal/format"
	"message-editor/internal/ports"

	"github.com/google/uuid"
)

// resultKey — ключ кэша результатов. Поле place пустое, если кэш
// сопоставляет результаты только по тексту.
type resultKey struct {
	generation uint64
	place      string
	text       string
}

// ruleSet — неизменяемый снимок списка правил.
type ruleSet struct {
	rules      []*domain.EditRule
	generation uint64
}

// Stats — снимок состояния сервиса для административного API.
type Stats struct {
	Rules          int   `json:"rules"`
	CachedResults  int   `json:"cached_results"`
	CachedMessages int   `json:"cached_messages"`
	Evaluations    int64 `json:"evaluations"`
}

// Option определяет функциональную опцию для конфигурации сервиса.
type Option func(*MatchingService)

// WithLogger — опция для установки логгера.
func WithLogger(l *slog.Logger) Option {
	return func(s *MatchingService) {
		if l != nil {
			s.log = l
		}
	}
}

// WithIDGenerator — опция для замены генератора идентификаторов.
func WithIDGenerator(g ports.IDGenerator) Option {
	return func(s *MatchingService) {
		if g != nil {
			s.idGen = g
		}
	}
}

// WithPlaceholderExpander — опция для подключения внешних плейсхолдеров.
func WithPlaceholderExpander(e ports.PlaceholderExpander) Option {
	return func(s *MatchingService) {
		s.placeholders = e
	}
}

// WithCacheTTL — опция для установки времени жизни неиспользуемых записей кэша.
func WithCacheTTL(d time.Duration) Option {
	return func(s *MatchingService) {
		if d > 0 {
			s.cacheTTL = d
		}
	}
}

// WithPlaceKeyedCache — опция, определяющая, учитывает ли кэш результатов место сообщения.
func WithPlaceKeyedCache(enabled bool) Option {
	return func(s *MatchingService) {
		s.keyByPlace = enabled
	}
}

// MatchingService подбирает правило для исходящего текста и строит результат.
// Список правил заменяется целиком, поэтому читатели никогда не видят его
// частично измененным.
type MatchingService struct {
	registry *domain.PlaceRegistry

	writeMu sync.Mutex
	rules   atomic.Pointer[ruleSet]

	results  *cache.CacheStore[resultKey, domain.CachedMessage]
	messages *cache.CacheStore[string, domain.MessageData]
	ids      *cache.CacheStore[resultKey, string]

	idGen        ports.IDGenerator
	placeholders ports.PlaceholderExpander
	keyByPlace   bool
	cacheTTL     time.Duration
	evaluations  atomic.Int64
	log          *slog.Logger
}

// NewMatchingService создает сервис сопоставления без правил.
func NewMatchingService(registry *domain.PlaceRegistry, opts ...Option) *MatchingService {
	s := &MatchingService{
		registry:   registry,
		keyByPlace: true,
		cacheTTL:   cache.DefaultIdleTTL,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.idGen == nil {
		s.idGen = NewRandomIDGenerator()
	}
	s.log = s.log.With(slog.String("component", "matching"))

	s.results = cache.NewCacheStore[resultKey, domain.CachedMessage](s.cacheTTL)
	s.messages = cache.NewCacheStore[string, domain.MessageData](s.cacheTTL)
	s.ids = cache.NewCacheStore[resultKey, string](s.cacheTTL)

	s.rules.Store(&ruleSet{})
	return s
}

// Registry возвращает реестр мест сервиса.
func (s *MatchingService) Registry() *domain.PlaceRegistry {
	return s.registry
}

// Rules возвращает текущий список правил в порядке применения.
func (s *MatchingService) Rules() []*domain.EditRule {
	rules := s.rules.Load().rules
	out := make([]*domain.EditRule, len(rules))
	copy(out, rules)
	return out
}

// ReplaceRules заменяет весь список правил и очищает кэши.
func (s *MatchingService) ReplaceRules(rules []*domain.EditRule) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := make([]*domain.EditRule, len(rules))
	copy(next, rules)
	s.rules.Store(&ruleSet{rules: next, generation: s.rules.Load().generation + 1})
	s.clearCaches()
}

// AddRule добавляет правило в конец списка и сбрасывает кэш результатов:
// новое правило может изменить результат для любого уже обработанного текста.
func (s *MatchingService) AddRule(rule *domain.EditRule) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current := s.rules.Load()
	next := make([]*domain.EditRule, len(current.rules), len(current.rules)+1)
	copy(next, current.rules)
	next = append(next, rule)
	s.rules.Store(&ruleSet{rules: next, generation: current.generation + 1})
	s.results.Clear()
}

// ClearCaches очищает кэш результатов и метаданные сообщений.
func (s *MatchingService) ClearCaches() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.clearCaches()
}

func (s *MatchingService) clearCaches() {
	s.results.Clear()
	s.messages.Clear()
	s.ids.Clear()
}

// CleanupExpired удаляет просроченные записи всех кэшей.
func (s *MatchingService) CleanupExpired() int {
	return s.results.CleanupExpired() + s.messages.CleanupExpired() + s.ids.CleanupExpired()
}

// Evaluations возвращает число сопоставлений шаблонов с текстом с момента создания.
func (s *MatchingService) Evaluations() int64 {
	return s.evaluations.Load()
}

// Stats возвращает снимок состояния сервиса.
func (s *MatchingService) Stats() Stats {
	return Stats{
		Rules:          len(s.rules.Load().rules),
		CachedResults:  s.results.Len(),
		CachedMessages: s.messages.Len(),
		Evaluations:    s.evaluations.Load(),
	}
}

// MessageData возвращает метаданные обработанного сообщения по идентификатору.
func (s *MatchingService) MessageData(id string) (domain.MessageData, bool) {
	return s.messages.Get(id)
}

// Match ищет первое правило, шаблон которого целиком совпадает с текстом.
func (s *MatchingService) Match(text string, place domain.Place) (*domain.EditRule, domain.Match, bool) {
	return s.match(s.rules.Load(), text, place)
}

func (s *MatchingService) match(set *ruleSet, text string, place domain.Place) (*domain.EditRule, domain.Match, bool) {
	for _, rule := range set.rules {
		if !rule.AppliesTo(place, s.registry) {
			continue
		}
		s.evaluations.Add(1)
		m, ok, err := rule.Match(text)
		if err != nil {
			s.log.Warn("Rule match aborted", slog.String("rule", rule.Name), slog.Any("error", err))
			continue
		}
		if ok {
			return rule, m, true
		}
	}
	return nil, domain.Match{}, false
}

// Process обрабатывает исходящее сообщение пользователя.
func (s *MatchingService) Process(user uuid.UUID, place domain.Place, text string) domain.Outcome {
	out := domain.Outcome{Text: text, Place: place}

	set := s.rules.Load()
	key := s.resultKey(set, place, text)
	cached, hit := s.results.Get(key)
	if !hit {
		cached = s.evaluate(set, text, place)
		s.results.Put(key, cached)
	}

	if cached.Rule != nil {
		produced := s.expandPlaceholders(user, cached.Text)
		if produced == "" {
			out.Text = ""
			out.Suppressed = true
			out.Changed = true
			return out
		}
		if dest := cached.Rule.DestinationPlace; dest != nil && dest.ChatLike {
			out.Place = s.registry.Canonical(*dest)
		}
		out.Text = produced
	}

	out.JSON = format.IsJSON(out.Text)
	out.MessageID = s.messageID(out.Place, out.Text)
	out.Changed = out.Text != text || !out.Place.Equal(place)

	s.messages.Put(out.MessageID, domain.MessageData{
		ID:    out.MessageID,
		Place: out.Place,
		Text:  out.Text,
		JSON:  out.JSON,
	})

	if s.registry.IsAnalyzing(out.Place) {
		s.logAnalyzed(user, out)
	}

	return out
}

// resultKey включает поколение списка правил, поэтому результат, вычисленный
// по старому списку, не переживает замену правил.
func (s *MatchingService) resultKey(set *ruleSet, place domain.Place, text string) resultKey {
	key := resultKey{generation: set.generation, text: text}
	if s.keyByPlace {
		key.place = s.registry.Canonical(place).ID
	}
	return key
}

// evaluate выполняет сопоставление и строит текст результата без плейсхолдеров.
func (s *MatchingService) evaluate(set *ruleSet, text string, place domain.Place) domain.CachedMessage {
	rule, m, ok := s.match(set, text, place)
	if !ok {
		return domain.CachedMessage{Text: text}
	}
	return domain.CachedMessage{
		Rule: rule,
		Text: format.Translate(ExpandTemplate(rule.Replacement, m)),
	}
}

// messageID возвращает идентификатор, выданный этому тексту в этом месте ранее,
// или создает новый.
func (s *MatchingService) messageID(place domain.Place, text string) string {
	key := resultKey{place: place.ID, text: text}
	if id, ok := s.ids.Get(key); ok {
		return id
	}
	id := s.idGen.Generate(place, text)
	s.ids.Put(key, id)
	return id
}

// expandPlaceholders вызывает внешний обработчик плейсхолдеров. Ошибка или
// паника обработчика не должны ломать доставку сообщения.
func (s *MatchingService) expandPlaceholders(user uuid.UUID, text string) (result string) {
	if s.placeholders == nil || text == "" {
		return text
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Placeholder expander panicked", slog.Any("panic", r))
			result = text
		}
	}()

	expanded, err := s.placeholders.Expand(user, text)
	if err != nil {
		s.log.Warn("Placeholder expansion failed", slog.Any("error", err))
		return text
	}
	return expanded
}

func (s *MatchingService) logAnalyzed(user uuid.UUID, out domain.Outcome) {
	attrs := []any{
		slog.String("place", out.Place.Name),
		slog.String("place_name", out.Place.FriendlyName),
		slog.String("user", user.String()),
		slog.String("message_id", out.MessageID),
		slog.Bool("json", out.JSON),
	}
	if out.JSON {
		attrs = append(attrs,
			slog.String("message", format.QuoteSpecial(out.Text)),
			slog.String("clear", format.Preview(out.Text, true)),
		)
	} else {
		attrs = append(attrs,
			slog.String("message", strings.ReplaceAll(out.Text, `\`, `\\`)),
			slog.String("clear", format.Strip(out.Text)),
		)
	}
	s.log.Info("Message analyzed", attrs...)
}
