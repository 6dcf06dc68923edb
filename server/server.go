// Package server 实现服务边界：单一 /chat 端点，接收
// {user_id, session_id, message}，确保会话存在后转交给编排层，
// 返回 {response, session_id}。
//
// 自然语言分发（意图识别、handler 选择）不属于本核心：
// Dispatcher 是注入的不透明协作方。
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cinematch/cinematch/core"
)

// Dispatcher 是编排层协作方：拿到会话与用户消息，决定调用哪个
// 操作并生成回复文本。call-and-return，无流式。
type Dispatcher interface {
	Dispatch(ctx context.Context, sess *core.Session, message string) (string, error)
}

// DispatcherFunc 是 Dispatcher 的函数适配器。
type DispatcherFunc func(ctx context.Context, sess *core.Session, message string) (string, error)

func (f DispatcherFunc) Dispatch(ctx context.Context, sess *core.Session, message string) (string, error) {
	return f(ctx, sess, message)
}

// Server 持有会话存储与分发器。
type Server struct {
	appName    string
	sessions   core.SessionService
	dispatcher Dispatcher
	logger     zerolog.Logger
}

// New 创建服务。
func New(appName string, sessions core.SessionService, dispatcher Dispatcher, logger zerolog.Logger) *Server {
	return &Server{
		appName:    appName,
		sessions:   sessions,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// ChatRequest 是 /chat 的请求体。
type ChatRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResponse 是 /chat 的响应体。
type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

// Router 构建路由。
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleRoot)
	r.Post("/chat", s.handleChat)
	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Movie Chatbot API is running. Send POST requests to /chat.",
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id is required"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	// create-if-absent：已有会话幂等返回，不会重置画像
	sess, err := s.sessions.Create(r.Context(), s.appName, req.UserID, req.SessionID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", req.UserID).Msg("failed to ensure session")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "session unavailable"})
		return
	}

	response, err := s.dispatcher.Dispatch(r.Context(), sess, req.Message)
	if err != nil {
		s.logger.Error().Err(err).Str("session", sess.Key()).Msg("dispatcher failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to handle message"})
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Response:  response,
		SessionID: req.SessionID,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
