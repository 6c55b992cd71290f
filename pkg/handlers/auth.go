package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/pulse-labs/pulse-assistant/pkg/apperrors"
	"github.com/pulse-labs/pulse-assistant/pkg/auth"
	"github.com/pulse-labs/pulse-assistant/pkg/services"
)

// LoginRequest for POST /api/auth/login
type LoginRequest struct {
	APIKey string `json:"api_key"`
}

// LoginResponse carries the new session identity and its bearer token.
// Browser clients can ignore the token; it is also saved in the cookie
// session.
type LoginResponse struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
}

// AuthHandler handles login and logout for the assistant API.
type AuthHandler struct {
	assistant services.AssistantService
	issuer    *auth.TokenIssuer
	logger    *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(assistant services.AssistantService, issuer *auth.TokenIssuer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		assistant: assistant,
		issuer:    issuer,
		logger:    logger,
	}
}

// RegisterRoutes registers the auth handler's routes on the given mux.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/logout", authMiddleware.RequireSession(h.Logout))
}

// Login handles POST /api/auth/login. The client supplies an OpenAI API
// key; the server opens an assistant session around it and hands back a
// signed session token. The key itself is never returned.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	session, err := h.assistant.Setup(r.Context(), req.APIKey)
	if err != nil {
		if errors.Is(err, apperrors.ErrMissingAPIKey) {
			if err := ErrorResponse(w, http.StatusBadRequest, "missing_api_key", "Please enter an OpenAI API key"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to open assistant session", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "login_failed", "Failed to open assistant session"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	token, err := h.issuer.Issue(session.ID, session.Model)
	if err != nil {
		h.logger.Error("Failed to issue session token",
			zap.String("session_id", session.ID.String()),
			zap.Error(err))
		// Don't leave a session nobody can reach.
		if terr := h.assistant.Teardown(r.Context(), session.ID); terr != nil {
			h.logger.Warn("Failed to tear down orphaned session", zap.Error(terr))
		}
		if err := ErrorResponse(w, http.StatusInternalServerError, "login_failed", "Failed to issue session token"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	h.saveCookie(w, r, token)

	response := ApiResponse{Success: true, Data: LoginResponse{
		SessionID: session.ID.String(),
		Token:     token,
	}}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Logout handles POST /api/auth/logout. Tears down the assistant
// session and clears the browser cookie; the bearer token stops
// resolving because the session is gone, not because it is revoked.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID, err := auth.RequireSessionIDFromContext(r.Context())
	if err != nil {
		if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.assistant.Teardown(r.Context(), sessionID); err != nil &&
		!errors.Is(err, apperrors.ErrSessionNotFound) {
		h.logger.Error("Failed to tear down session",
			zap.String("session_id", sessionID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "logout_failed", "Failed to close session"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	h.clearCookie(w, r)

	response := ApiResponse{Success: true, Data: map[string]string{"message": "Logged out"}}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// saveCookie stores the session token in the browser cookie session.
// Best-effort: API clients carry the bearer token instead, and tests
// run without an initialized store.
func (h *AuthHandler) saveCookie(w http.ResponseWriter, r *http.Request, token string) {
	if auth.Store == nil {
		return
	}

	session, err := auth.GetSession(r)
	if err != nil {
		h.logger.Warn("Failed to get cookie session", zap.Error(err))
		return
	}
	session.Values[auth.SessionKeyToken] = token
	if err := auth.SaveSession(r, w, session); err != nil {
		h.logger.Warn("Failed to save cookie session", zap.Error(err))
	}
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, r *http.Request) {
	if auth.Store == nil {
		return
	}

	session, err := auth.GetSession(r)
	if err != nil {
		return
	}
	auth.ClearSessionValues(session)
	if err := auth.SaveSession(r, w, session); err != nil {
		h.logger.Warn("Failed to clear cookie session", zap.Error(err))
	}
}
