package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"message-editor/internal/core/services"
	"message-editor/internal/domain"
	"message-editor/internal/editor"
	"message-editor/internal/engine"
	"message-editor/internal/pkg/config"
	"message-editor/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Engine определяет операции движка, которые доступны через HTTP.
type Engine interface {
	LookupPlace(name string) (domain.Place, bool)
	OnOutboundMessage(user uuid.UUID, place domain.Place, text string) domain.Outcome
	ProcessPacket(user uuid.UUID, packet *ports.Packet) (engine.PacketResult, error)
	OnUserChatLine(ctx context.Context, user uuid.UUID, line string) bool
	BeginEditSession(user uuid.UUID, messageID string) (domain.EditSession, bool)
	Session(user uuid.UUID) (domain.EditSession, bool)
	HandleMenuAction(ctx context.Context, user uuid.UUID, action editor.Action) bool
	EndEditSession(user uuid.UUID) bool
	ActivatePlace(name string) (domain.Place, error)
	DeactivatePlace(name string) (domain.Place, error)
	DeactivateAll() int
	Reload(ctx context.Context) (engine.ReloadReport, error)
	ClearCaches()
	Places() []engine.PlaceStatus
	Rules() []ports.RuleRecord
	Stats() services.Stats
	MessageData(id string) (domain.MessageData, bool)
}

// Server представляет HTTP-сервер
type Server struct {
	HTTPServer *http.Server
	cfg        *config.Config
	engine     Engine
	events     *EventStore
}

type processRequest struct {
	User  string `json:"user"`
	Place string `json:"place"`
	Text  string `json:"text"`
}

type packetRequest struct {
	User   string        `json:"user"`
	Packet *ports.Packet `json:"packet"`
}

type packetResponse struct {
	engine.PacketResult
	Packet *ports.Packet `json:"packet"`
}

type chatRequest struct {
	User string `json:"user"`
	Line string `json:"line"`
}

type sessionRequest struct {
	User      string `json:"user"`
	MessageID string `json:"message_id"`
}

type actionRequest struct {
	Action string `json:"action"`
}

type reloadResponse struct {
	engine.ReloadReport
	Errors []string `json:"errors"`
}

// New создает новый экземпляр Server
func New(cfg *config.Config, eng Engine, events *EventStore) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		engine: eng,
		events: events,
	}

	chiRouter := chi.NewRouter()

	// Промежуточное ПО
	chiRouter.Use(middleware.RequestID)
	chiRouter.Use(middleware.Logger)
	chiRouter.Use(middleware.Recoverer)

	// Конечная точка для проверки работоспособности
	chiRouter.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Маршруты API
	chiRouter.Route("/api/v1", func(r chi.Router) {
		r.Post("/messages/process", s.handleProcess)
		r.Get("/messages/{id}", s.handleMessage)
		r.Post("/packets", s.handlePacket)
		r.Post("/chat", s.handleChat)

		r.Post("/sessions", s.handleBeginSession)
		r.Get("/sessions/{user}", s.handleGetSession)
		r.Delete("/sessions/{user}", s.handleEndSession)
		r.Post("/sessions/{user}/actions", s.handleAction)
		r.Get("/users/{user}/events", s.handleEvents)

		r.Get("/places", s.handlePlaces)
		r.Post("/places/deactivate-all", s.handleDeactivateAll)
		r.Post("/places/{name}/activate", s.handleActivate)
		r.Post("/places/{name}/deactivate", s.handleDeactivate)

		r.Get("/rules", s.handleRules)
		r.Post("/reload", s.handleReload)
		r.Post("/caches/clear", s.handleClearCaches)
		r.Get("/stats", s.handleStats)
	})

	s.HTTPServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      chiRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s, nil
}

// ListenAndServe запускает HTTP-сервер
func (s *Server) ListenAndServe() error {
	return s.HTTPServer.ListenAndServe()
}

// Shutdown корректно завершает работу HTTP-сервера
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server")
	return s.HTTPServer.Shutdown(ctx)
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if !decode(w, r, &req) {
		return
	}
	user, ok := parseUser(w, req.User)
	if !ok {
		return
	}
	place, found := s.engine.LookupPlace(req.Place)
	if !found {
		http.Error(w, "Неизвестное место сообщения", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.OnOutboundMessage(user, place, req.Text))
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	data, ok := s.engine.MessageData(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "Сообщение не найдено", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handlePacket(w http.ResponseWriter, r *http.Request) {
	var req packetRequest
	if !decode(w, r, &req) {
		return
	}
	user, ok := parseUser(w, req.User)
	if !ok {
		return
	}
	if req.Packet == nil || req.Packet.Type == "" {
		http.Error(w, "Требуется пакет с типом", http.StatusBadRequest)
		return
	}
	if req.Packet.Fields == nil {
		req.Packet.Fields = make(map[string]any)
	}

	result, err := s.engine.ProcessPacket(user, req.Packet)
	if err != nil {
		slog.Error("Packet processing failed", slog.String("type", req.Packet.Type), slog.Any("error", err))
		http.Error(w, "Не удалось обработать пакет", http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, packetResponse{PacketResult: result, Packet: req.Packet})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decode(w, r, &req) {
		return
	}
	user, ok := parseUser(w, req.User)
	if !ok {
		return
	}
	consumed := s.engine.OnUserChatLine(r.Context(), user, req.Line)
	writeJSON(w, http.StatusOK, map[string]bool{"consumed": consumed})
}

func (s *Server) handleBeginSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decode(w, r, &req) {
		return
	}
	user, ok := parseUser(w, req.User)
	if !ok {
		return
	}
	session, found := s.engine.BeginEditSession(user, req.MessageID)
	if !found {
		http.Error(w, "Нет данных о сообщении с таким идентификатором", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	user, ok := parseUser(w, chi.URLParam(r, "user"))
	if !ok {
		return
	}
	session, found := s.engine.Session(user)
	if !found {
		http.Error(w, "Сессия не найдена", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	user, ok := parseUser(w, chi.URLParam(r, "user"))
	if !ok {
		return
	}
	if !s.engine.EndEditSession(user) {
		http.Error(w, "Сессия не найдена", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	user, ok := parseUser(w, chi.URLParam(r, "user"))
	if !ok {
		return
	}
	var req actionRequest
	if !decode(w, r, &req) {
		return
	}
	action, known := editor.ParseAction(req.Action)
	if !known {
		http.Error(w, "Неизвестное действие", http.StatusBadRequest)
		return
	}
	if !s.engine.HandleMenuAction(r.Context(), user, action) {
		http.Error(w, "Сессия не найдена", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"action": action.String()})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := parseUser(w, chi.URLParam(r, "user"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.events.Drain(user))
}

func (s *Server) handlePlaces(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Places())
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	place, err := s.engine.ActivatePlace(chi.URLParam(r, "name"))
	if err != nil {
		writePlaceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, place)
}

func (s *Server) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	place, err := s.engine.DeactivatePlace(chi.URLParam(r, "name"))
	if err != nil {
		writePlaceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, place)
}

func (s *Server) handleDeactivateAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"deactivated": s.engine.DeactivateAll()})
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Rules())
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	report, err := s.engine.Reload(r.Context())
	if err != nil {
		slog.Error("Reload failed", slog.Any("error", err))
		http.Error(w, "Не удалось перезагрузить правила", http.StatusInternalServerError)
		return
	}
	resp := reloadResponse{ReloadReport: report, Errors: make([]string, 0, len(report.Failed))}
	for _, e := range report.Failed {
		resp.Errors = append(resp.Errors, e.Error())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClearCaches(w http.ResponseWriter, r *http.Request) {
	s.engine.ClearCaches()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Stats())
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Не удалось декодировать тело запроса", http.StatusBadRequest)
		return false
	}
	return true
}

func parseUser(w http.ResponseWriter, raw string) (uuid.UUID, bool) {
	user, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, "Требуется корректный UUID пользователя", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return user, true
}

func writePlaceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownPlace):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrPlaceNotSupported):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, domain.ErrPlaceAlreadyAnalyzed), errors.Is(err, domain.ErrPlaceNotAnalyzed):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", slog.Any("error", err))
	}
}
