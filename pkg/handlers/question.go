// Package handlers exposes the engine's HTTP surface: the question endpoint
// plus health checks.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/agent"
)

// QuestionRequest is the POST /api/question body. ChatID and ConnectionID
// are optional; a pinned ConnectionID wins over the chat association.
type QuestionRequest struct {
	Question     string `json:"question"`
	UserID       string `json:"userId"`
	ChatID       string `json:"chatId,omitempty"`
	ConnectionID string `json:"connectionId,omitempty"`
	Context      string `json:"context,omitempty"`
}

// QuestionHandler answers natural-language questions about user data.
type QuestionHandler struct {
	orchestrator *agent.Orchestrator
	logger       *zap.Logger
}

// NewQuestionHandler creates a QuestionHandler.
func NewQuestionHandler(orchestrator *agent.Orchestrator, logger *zap.Logger) *QuestionHandler {
	return &QuestionHandler{orchestrator: orchestrator, logger: logger.Named("question")}
}

// RegisterRoutes registers the question endpoint on the given mux.
func (h *QuestionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/question", h.HandleQuestion)
}

// HandleQuestion handles POST /api/question.
func (h *QuestionHandler) HandleQuestion(w http.ResponseWriter, r *http.Request) {
	var req QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}

	if req.Question == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "missing_question", "question is required")
		return
	}
	if req.UserID == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "missing_user_id", "userId is required")
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_user_id", "userId must be a UUID")
		return
	}
	chatID, err := parseOptionalUUID(req.ChatID)
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_chat_id", "chatId must be a UUID")
		return
	}
	connectionID, err := parseOptionalUUID(req.ConnectionID)
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_connection_id", "connectionId must be a UUID")
		return
	}

	start := time.Now()
	resp, err := h.orchestrator.HandleQuestion(r.Context(), &agent.Request{
		Question:     req.Question,
		UserID:       userID,
		ChatID:       chatID,
		ConnectionID: connectionID,
		Context:      req.Context,
	})
	if err != nil {
		h.logger.Error("question handling failed",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to answer the question")
		return
	}

	h.logger.Info("question answered",
		zap.String("user_id", userID.String()),
		zap.Bool("has_sql", resp.SQLQuery != ""),
		zap.Bool("has_visualization", resp.Visualization != nil),
		zap.Bool("has_table", resp.TableData != nil),
		zap.Duration("elapsed", time.Since(start)))

	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("Failed to encode question response", zap.Error(err))
	}
}

func parseOptionalUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(s)
}
