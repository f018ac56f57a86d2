package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Memomer/brainstormer/core"
	"github.com/Memomer/brainstormer/logging"
	"github.com/Memomer/brainstormer/runner"
)

// Server translates HTTP requests into runner invocations and serializes
// stored entities back to clients.
type Server struct {
	runner *runner.Runner
	logger logging.Logger
}

// New builds the HTTP handler for the brainstormer API with logging and CORS
// middleware applied.
func New(r *runner.Runner, logger logging.Logger) http.Handler {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	s := &Server{runner: r, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /projects", s.handleCreateProject)
	mux.HandleFunc("GET /projects", s.handleListProjects)
	mux.HandleFunc("GET /projects/{id}/chats", s.handleListChats)
	mux.HandleFunc("POST /chats/start", s.handleStartChat)
	mux.HandleFunc("POST /chats/{id}/message", s.handleSendMessage)
	mux.HandleFunc("GET /chats/{id}/messages", s.handleListMessages)
	mux.HandleFunc("DELETE /chats/{id}", s.handleDeleteChat)

	return chain(mux, withCORS, withLogging(logger))
}

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	UserID      *int64 `json:"user_id,omitempty"`
}

type projectResponse struct {
	ID          int64  `json:"project_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type chatResponse struct {
	ID    int64  `json:"chat_id"`
	Title string `json:"title,omitempty"`
	Idea  string `json:"idea"`
}

type startChatRequest struct {
	ProjectID int64  `json:"project_id"`
	Idea      string `json:"idea"`
	Title     string `json:"title,omitempty"`
	UserID    *int64 `json:"user_id,omitempty"`
}

type sendMessageRequest struct {
	Content string `json:"content"`
	UserID  *int64 `json:"user_id,omitempty"`
}

type messageResponse struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Sequence  int       `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
}

type chatHistoryResponse struct {
	ChatID   int64             `json:"chat_id"`
	Messages []messageResponse `json:"messages"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "brainstormer",
		"status":  "ok",
	})
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		badRequest(w, "name is required")
		return
	}

	p, err := s.runner.CreateProject(r.Context(), runner.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     req.UserID,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectResponse(p))
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.runner.ListProjects(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r)
	if !ok {
		return
	}
	chats, err := s.runner.ListChats(r.Context(), projectID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]chatResponse, 0, len(chats))
	for _, c := range chats {
		out = append(out, chatResponse{ID: c.ID, Title: c.Title, Idea: c.Idea})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStartChat(w http.ResponseWriter, r *http.Request) {
	var req startChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Idea) == "" {
		badRequest(w, "idea is required")
		return
	}

	chat, msgs, err := s.runner.StartChat(r.Context(), runner.StartChatInput{
		ProjectID: req.ProjectID,
		Idea:      req.Idea,
		Title:     req.Title,
		UserID:    req.UserID,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, chatHistoryResponse{
		ChatID:   chat.ID,
		Messages: toMessagesResponse(msgs),
	})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	chatID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		badRequest(w, "content is required")
		return
	}

	msgs, err := s.runner.SendMessage(r.Context(), runner.SendMessageInput{
		ChatID:  chatID,
		Content: req.Content,
		UserID:  req.UserID,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chatHistoryResponse{
		ChatID:   chatID,
		Messages: toMessagesResponse(msgs),
	})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	chatID, ok := pathID(w, r)
	if !ok {
		return
	}
	msgs, err := s.runner.History(r.Context(), chatID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chatHistoryResponse{
		ChatID:   chatID,
		Messages: toMessagesResponse(msgs),
	})
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	chatID, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.runner.DeleteChat(r.Context(), chatID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toProjectResponse(p *core.Project) projectResponse {
	return projectResponse{ID: p.ID, Name: p.Name, Description: p.Description}
}

func toMessagesResponse(msgs []*core.Message) []messageResponse {
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageResponse{
			ID:        m.ID,
			ChatID:    m.ChatID,
			Role:      m.Role.String(),
			Content:   m.Content,
			Sequence:  m.Sequence,
			Timestamp: m.Created,
		})
	}
	return out
}

// pathID parses the {id} path segment, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, "invalid id")
		return 0, false
	}
	return id, true
}

// writeError maps domain errors onto HTTP status codes: missing entities are
// 404, upstream model failures are 502, anything else is 500. Details of
// internal failures are logged, not leaked.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var modelErr *core.ModelError
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.As(err, &modelErr):
		s.logger.Error("upstream model failure: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream model failure"})
	default:
		s.logger.Error("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}
