package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"message-editor/internal/core/services"
	"message-editor/internal/domain"
	"message-editor/internal/ports"

	"github.com/google/uuid"
)

const (
	msgCommitted        = "&7Message edit has been saved and applied."
	msgDuplicateName    = "&cMessage edit '&7%s&c' already exists. Change the file name and try again."
	msgInvalidPattern   = "&cOld message pattern cannot be used: &7%v"
	msgNotPersisted     = "&cMessage edit has been applied but could not be saved. Check the logs for details."
	msgSessionsReloaded = "&7Your message editor menu has been closed due to the plugin reload."
)

// Option определяет функциональную опцию для конфигурации сервиса.
type Option func(*Service)

// WithLogger — опция для установки логгера.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMatchTimeout — опция для установки ограничения времени сопоставления
// шаблонов создаваемых правил.
func WithMatchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithSessionStore — опция для подключения внешнего хранилища сессий.
func WithSessionStore(store *SessionStore) Option {
	return func(s *Service) {
		if store != nil {
			s.sessions = store
		}
	}
}

// Service ведет сессии редактирования и выполняет эффекты переходов мастера.
type Service struct {
	matcher  *services.MatchingService
	rules    ports.RuleStore
	notifier ports.Notifier
	menus    ports.MenuPresenter

	machine  *Machine
	sessions *SessionStore
	timeout  time.Duration
	log      *slog.Logger

	// commitMu делает проверку имени и добавление правила одной операцией.
	commitMu sync.Mutex
}

// NewService создает сервис редактора.
func NewService(matcher *services.MatchingService, rules ports.RuleStore, notifier ports.Notifier, menus ports.MenuPresenter, opts ...Option) *Service {
	s := &Service{
		matcher:  matcher,
		rules:    rules,
		notifier: notifier,
		menus:    menus,
		machine:  NewMachine(matcher.Registry()),
		sessions: NewSessionStore(),
		timeout:  domain.DefaultMatchTimeout,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(slog.String("component", "editor"))
	return s
}

// Sessions возвращает хранилище сессий сервиса.
func (s *Service) Sessions() *SessionStore {
	return s.sessions
}

// Session возвращает копию текущей сессии пользователя.
func (s *Service) Session(user uuid.UUID) (domain.EditSession, bool) {
	return s.sessions.Get(user)
}

// Begin открывает сессию редактирования для обработанного сообщения.
// Ранее открытая сессия пользователя заменяется.
func (s *Service) Begin(user uuid.UUID, data domain.MessageData) domain.EditSession {
	session := NewSession(data)
	s.menus.OpenMenu(user, session)
	s.sessions.Put(user, session)
	s.log.Debug("Edit session started", slog.String("user", user.String()), slog.String("message_id", data.ID))
	return session
}

// End закрывает сессию без сохранения.
func (s *Service) End(user uuid.UUID) bool {
	return s.sessions.Delete(user)
}

// HandleLine передает строку чата мастеру. Возвращает false, если строка
// не относится к мастеру и должна быть доставлена как обычно.
func (s *Service) HandleLine(ctx context.Context, user uuid.UUID, line string) bool {
	return s.handle(ctx, user, LineInput(line))
}

// HandleAction передает мастеру нажатие кнопки меню.
func (s *Service) HandleAction(ctx context.Context, user uuid.UUID, action Action) bool {
	return s.handle(ctx, user, ActionInput(action))
}

func (s *Service) handle(ctx context.Context, user uuid.UUID, in Input) bool {
	var (
		next    domain.EditSession
		effects []Effect
		handled bool
	)
	found := s.sessions.Update(user, func(session *domain.EditSession) {
		next, effects, handled = s.machine.Transition(*session, in)
		*session = next
	})
	if !found || !handled {
		return false
	}

	for _, effect := range effects {
		s.apply(ctx, user, next, effect)
	}
	return true
}

func (s *Service) apply(ctx context.Context, user uuid.UUID, session domain.EditSession, effect Effect) {
	switch effect.Kind {
	case EffectNotify:
		s.notifier.Notify(user, effect.Message)
	case EffectPlayCue:
		s.notifier.PlayCue(user, effect.Cue)
	case EffectOpenMenu:
		s.menus.OpenMenu(user, session)
	case EffectCloseMenu:
		s.menus.CloseMenu(user)
	case EffectDiscard:
		s.sessions.Delete(user)
	case EffectCommit:
		s.commitSession(ctx, user, session)
	}
}

func (s *Service) commitSession(ctx context.Context, user uuid.UUID, session domain.EditSession) {
	rule, err := s.Commit(ctx, session)
	switch {
	case err == nil:
		s.sessions.Delete(user)
		s.menus.CloseMenu(user)
		s.notifier.PlayCue(user, ports.CuePositive)
		s.notifier.Notify(user, notify(msgCommitted).Message)
		s.log.Info("Rule committed", slog.String("user", user.String()), slog.String("rule", rule.Name))

	case errors.Is(err, domain.ErrDuplicateFileName):
		s.notifier.PlayCue(user, ports.CueNegative)
		s.notifier.Notify(user, notify(fmt.Sprintf(msgDuplicateName, session.FileName)).Message)

	case errors.Is(err, domain.ErrInvalidRuleName):
		s.notifier.PlayCue(user, ports.CueNegative)
		s.notifier.Notify(user, notify(msgFileNameInvalid).Message)

	case errors.Is(err, domain.ErrInvalidPattern):
		s.notifier.PlayCue(user, ports.CueNegative)
		s.notifier.Notify(user, notify(fmt.Sprintf(msgInvalidPattern, err)).Message)

	case errors.Is(err, domain.ErrPersistenceFailure) && rule != nil:
		s.log.Error("Rule applied but not persisted", slog.String("rule", rule.Name), slog.Any("error", err))
		s.sessions.Delete(user)
		s.menus.CloseMenu(user)
		s.notifier.PlayCue(user, ports.CueNegative)
		s.notifier.Notify(user, notify(msgNotPersisted).Message)

	default:
		s.log.Error("Rule commit failed", slog.String("user", user.String()), slog.Any("error", err))
		s.notifier.PlayCue(user, ports.CueNegative)
		s.notifier.Notify(user, notify(msgNotPersisted).Message)
	}
}

// Commit превращает сессию в правило, добавляет его в конец списка и сохраняет.
// При ошибке сохранения правило остается в памяти: возвращаются и правило,
// и ошибка, обернутая в domain.ErrPersistenceFailure.
func (s *Service) Commit(ctx context.Context, session domain.EditSession) (*domain.EditRule, error) {
	rule, err := BuildCommitRule(session, s.timeout)
	if err != nil {
		return nil, err
	}

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if s.hasRule(rule.Name) {
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateFileName, rule.Name)
	}
	exists, err := s.rules.Exists(ctx, rule.Name)
	if err != nil {
		return nil, fmt.Errorf("check rule %q: %w", rule.Name, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateFileName, rule.Name)
	}

	s.matcher.AddRule(rule)

	if err := s.rules.Save(ctx, services.ToRecord(rule)); err != nil {
		return rule, fmt.Errorf("%w: %w", domain.ErrPersistenceFailure, err)
	}
	return rule, nil
}

func (s *Service) hasRule(name string) bool {
	for _, r := range s.matcher.Rules() {
		if r.Name == name {
			return true
		}
	}
	return false
}

// CloseAll закрывает все сессии, например после перезагрузки правил,
// и сообщает об этом пользователям. Возвращает число закрытых сессий.
func (s *Service) CloseAll() int {
	users := s.sessions.Clear()
	for _, user := range users {
		s.menus.CloseMenu(user)
		s.notifier.Notify(user, notify(msgSessionsReloaded).Message)
	}
	return len(users)
}

// BuildCommitRule строит правило из сессии. Шаблон проверяется на исходном
// тексте сообщения: если он совпадает, в новом тексте остаются только ссылки
// на существующие группы, иначе экранируется каждый знак доллара.
func BuildCommitRule(session domain.EditSession, timeout time.Duration) (*domain.EditRule, error) {
	if !ValidFileName(session.FileName) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRuleName, session.FileName)
	}

	re, err := domain.CompileWhole(session.SourcePattern, timeout)
	if err != nil {
		return nil, err
	}
	m, matched, err := domain.MatchWhole(re, session.OriginalText)
	if err != nil {
		matched = false
	}
	groups := 0
	if matched {
		groups = m.GroupCount()
	}

	source := session.SourcePlace
	destination := session.DestinationPlace
	return domain.NewEditRule(domain.RuleDefinition{
		Name:             session.FileName,
		SourcePattern:    session.SourcePattern,
		SourcePlace:      &source,
		Replacement:      services.EscapeReplacement(session.ReplacementText, groups, matched),
		DestinationPlace: &destination,
	}, timeout)
}
