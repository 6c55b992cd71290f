package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/pulse-labs/pulse-assistant/pkg/apperrors"
	"github.com/pulse-labs/pulse-assistant/pkg/auth"
	"github.com/pulse-labs/pulse-assistant/pkg/models"
	"github.com/pulse-labs/pulse-assistant/pkg/services"
)

// AskRequest for POST /api/chat
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse carries the assistant's answer. Faults during reasoning
// come back here as answer text, not as HTTP errors.
type AskResponse struct {
	Answer string `json:"answer"`
}

// ChatMessageResponse is one transcript turn in the history endpoint.
type ChatMessageResponse struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// ChatHistoryResponse for GET /api/chat/history
type ChatHistoryResponse struct {
	SessionID string                `json:"session_id"`
	Messages  []ChatMessageResponse `json:"messages"`
	Total     int                   `json:"total"`
}

// ChatHandler handles question and history requests for an assistant session.
type ChatHandler struct {
	assistant services.AssistantService
	logger    *zap.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(assistant services.AssistantService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		assistant: assistant,
		logger:    logger,
	}
}

// RegisterRoutes registers the chat handler's routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/chat", authMiddleware.RequireSession(h.Ask))
	mux.HandleFunc("GET /api/chat/history", authMiddleware.RequireSession(h.GetHistory))
}

// Ask handles POST /api/chat. One question per request; the session
// serializes concurrent questions itself.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if req.Question == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_question", "Question is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	answer := h.assistant.Ask(r.Context(), session, req.Question)

	response := ApiResponse{Success: true, Data: AskResponse{Answer: answer}}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetHistory handles GET /api/chat/history. Returns the session's full
// transcript in insertion order.
func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}

	transcript := h.assistant.History(session)

	data := ChatHistoryResponse{
		SessionID: session.ID.String(),
		Messages:  make([]ChatMessageResponse, len(transcript)),
		Total:     len(transcript),
	}
	for i, m := range transcript {
		data.Messages[i] = toChatMessageResponse(m)
	}

	response := ApiResponse{Success: true, Data: data}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// resolveSession maps the authenticated claims to a live assistant
// session. A valid token whose session is gone (restart without Redis,
// explicit logout) gets a 401 so the client logs in again.
func (h *ChatHandler) resolveSession(w http.ResponseWriter, r *http.Request) (*services.AgentSession, bool) {
	sessionID, err := auth.RequireSessionIDFromContext(r.Context())
	if err != nil {
		if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return nil, false
	}

	session, err := h.assistant.Session(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrSessionNotFound) {
			if err := ErrorResponse(w, http.StatusUnauthorized, "session_expired", "Session not found; please log in again"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return nil, false
		}
		h.logger.Error("Failed to resolve session",
			zap.String("session_id", sessionID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to resolve session"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return nil, false
	}

	return session, true
}

func toChatMessageResponse(m models.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		Role:      string(m.Role),
		Content:   m.Content,
		CreatedAt: m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
