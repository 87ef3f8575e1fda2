package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"

	"shop-agent/internal/adapter/results"
	"shop-agent/internal/application/port/input"
	"shop-agent/internal/application/port/output"
	"shop-agent/internal/domain/entity"
	"shop-agent/internal/infrastructure/artifacts"
	"shop-agent/internal/infrastructure/proxy"
)

// TaskReader exposes task records for status polling.
type TaskReader interface {
	Get(id string) (*entity.Task, bool)
}

// Server is the HTTP surface: intent submission, task polling, artifact and
// proxy-health lookups.
type Server struct {
	parser     input.IntentParser
	dispatcher input.TaskDispatcher
	tasks      TaskReader
	results    *results.MemoryStore
	artifacts  *artifacts.Store
	prober     *proxy.Prober
	logger     output.LoggerPort
}

func NewServer(
	parser input.IntentParser,
	dispatcher input.TaskDispatcher,
	tasks TaskReader,
	store *results.MemoryStore,
	artifactStore *artifacts.Store,
	prober *proxy.Prober,
	logger output.LoggerPort,
) *Server {
	return &Server{
		parser:     parser,
		dispatcher: dispatcher,
		tasks:      tasks,
		results:    store,
		artifacts:  artifactStore,
		prober:     prober,
		logger:     logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	httpLogger := httplog.NewLogger("shop-agent", httplog.Options{
		JSON:    true,
		Concise: true,
	})
	r.Use(httplog.RequestLogger(httpLogger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		api.Post("/chat/query", s.handleChatQuery)
		api.Post("/workflows/run", s.handleRunWorkflow)
		api.Post("/auth/login", s.handleAuthLogin)
		api.Get("/tasks/{taskID}", s.handleGetTask)
		api.Get("/tasks/{taskID}/result", s.handleGetResult)
		api.Post("/tasks/{taskID}/result", s.handleUpsertResult)
		api.Get("/artifacts/{filename}", s.handleArtifact)
		api.Get("/proxy/health", s.handleProxyHealth)
	})

	return r
}

type chatRequest struct {
	Query   string `json:"query"`
	UserID  int    `json:"user_id"`
	Confirm bool   `json:"confirm"`
}

type chatResponse struct {
	TaskID string        `json:"task_id,omitempty"`
	Status string        `json:"status"`
	Plan   entity.Intent `json:"plan"`
}

// handleChatQuery parses the free-text request into an intent and queues it.
// Spending intents need an explicit confirm flag before anything runs.
func (s *Server) handleChatQuery(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	intent, err := s.parser.Parse(r.Context(), req.Query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "intent parsing failed")
		return
	}
	intent.UserID = req.UserID

	if intent.Safe && !req.Confirm {
		writeJSON(w, http.StatusOK, chatResponse{Status: "requires_confirmation", Plan: intent})
		return
	}

	task, err := s.dispatcher.Submit(r.Context(), intent)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "task submission failed")
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{TaskID: task.ID, Status: "queued", Plan: intent})
}

type runRequest struct {
	UserID int           `json:"user_id"`
	Intent entity.Intent `json:"intent"`
}

// handleRunWorkflow queues a pre-structured intent, bypassing the parser.
func (s *Server) handleRunWorkflow(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Intent.Action.Valid() {
		writeError(w, http.StatusBadRequest, "unknown action")
		return
	}
	req.Intent.UserID = req.UserID

	task, err := s.dispatcher.Submit(r.Context(), req.Intent)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "task submission failed")
		return
	}
	writeJSON(w, http.StatusAccepted, task)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UserID   int    `json:"user_id"`
}

// handleAuthLogin queues a login-only workflow to validate credentials
// against the storefront and warm the stored session.
func (s *Server) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	task, err := s.dispatcher.Submit(r.Context(), entity.Intent{
		Action:      entity.ActionLogin,
		Credentials: entity.Credentials{Email: req.Email, Password: req.Password},
		UserID:      req.UserID,
	})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "task submission failed")
		return
	}
	writeJSON(w, http.StatusAccepted, task)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, ok := s.tasks.Get(chi.URLParam(r, "taskID"))
	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	if payload, ok := s.results.Get(taskID); ok {
		writeJSON(w, http.StatusOK, payload)
		return
	}
	if task, ok := s.tasks.Get(taskID); ok {
		// Known but not finished yet.
		writeJSON(w, http.StatusAccepted, map[string]string{"status": string(task.Status)})
		return
	}
	writeError(w, http.StatusNotFound, "task not found")
}

// handleUpsertResult is the persistence callback endpoint: same task ID
// overwrites, so redelivered results never duplicate.
func (s *Server) handleUpsertResult(w http.ResponseWriter, r *http.Request) {
	var payload entity.TaskResultPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	payload.TaskID = chi.URLParam(r, "taskID")
	if payload.TaskID == "" {
		writeError(w, http.StatusBadRequest, "task id is required")
		return
	}
	if err := s.results.Deliver(r.Context(), payload); err != nil {
		writeError(w, http.StatusInternalServerError, "store failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stored"})
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	path, err := s.artifacts.Resolve(chi.URLParam(r, "filename"))
	if err != nil {
		if errors.Is(err, artifacts.ErrNotFound) {
			writeError(w, http.StatusNotFound, "artifact not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "artifact lookup failed")
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) handleProxyHealth(w http.ResponseWriter, _ *http.Request) {
	if s.prober == nil {
		writeJSON(w, http.StatusOK, proxy.Report{})
		return
	}
	writeJSON(w, http.StatusOK, s.prober.Latest())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
