// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server exposes the assistant's HTTP API: registration and
// login, provider linking, on-demand email analysis, the recommendation
// ledger, and the news digest.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aidekit/assistant/internal/auth"
	"github.com/aidekit/assistant/internal/ledger"
	"github.com/aidekit/assistant/internal/models"
	"github.com/aidekit/assistant/internal/news"
)

// EmailAnalyzer runs one email through the agent pipeline.
// Implemented by agent.Agent.
type EmailAnalyzer interface {
	Process(ctx context.Context, email models.InboundEmail) models.ActionOutcome
}

// TokenManager issues and verifies platform tokens.
// Implemented by auth.Manager.
type TokenManager interface {
	Issue(userID, email string) (string, error)
	ServiceToken(userID string) (string, error)
	Verify(token string) (*auth.Claims, error)
}

// ProviderLinker runs the OAuth linking flow.
// Implemented by auth.YandexLinker.
type ProviderLinker interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, userID, code string) (*auth.YandexProfile, error)
	Linked(ctx context.Context, userID string) (bool, error)
}

// NewsSource produces the news digest. Implemented by news.Service.
type NewsSource interface {
	Fetch(ctx context.Context) (*news.Digest, error)
}

// Handler carries the API's collaborators.
type Handler struct {
	users    auth.UserStore
	tokens   TokenManager
	linker   ProviderLinker
	analyzer EmailAnalyzer
	ledger   ledger.Ledger
	news     NewsSource
}

// HandlerConfig wires the handler. Linker and News may be nil; their
// routes then return 503.
type HandlerConfig struct {
	Users    auth.UserStore
	Tokens   TokenManager
	Linker   ProviderLinker
	Analyzer EmailAnalyzer
	Ledger   ledger.Ledger
	News     NewsSource
}

// NewHandler creates the API handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		users:    cfg.Users,
		tokens:   cfg.Tokens,
		linker:   cfg.Linker,
		analyzer: cfg.Analyzer,
		ledger:   cfg.Ledger,
		news:     cfg.News,
	}
}

// Routes registers every endpoint on a fresh mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/register", h.handleRegister)
	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.HandleFunc("GET /auth/verify", h.authenticated(h.handleVerify))
	mux.HandleFunc("GET /auth/me", h.authenticated(h.handleMe))
	mux.HandleFunc("GET /auth/yandex/authorize", h.authenticated(h.handleYandexAuthorize))
	mux.HandleFunc("GET /auth/yandex/callback", h.handleYandexCallback)
	mux.HandleFunc("GET /auth/yandex/status", h.authenticated(h.handleYandexStatus))

	mux.HandleFunc("POST /analyze-email", h.authenticated(h.handleAnalyzeEmail))
	mux.HandleFunc("GET /recommendations", h.authenticated(h.handleRecommendations))
	mux.HandleFunc("GET /news", h.handleNews)
	mux.HandleFunc("GET /health", h.handleHealth)

	return mux
}

// authenticated wraps a handler with bearer token verification. The
// verified claims ride on the request context.
func (h *Handler) authenticated(next func(http.ResponseWriter, *http.Request, *auth.Claims)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := h.tokens.Verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next(w, r, claims)
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := h.users.Register(req.Email, req.Password)
	if errors.Is(err, auth.ErrUserExists) {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		slog.Error("token issue failed", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "token issue failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"token": token,
		"user":  map[string]string{"id": user.ID, "email": user.Email},
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := h.users.Authenticate(req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		slog.Error("token issue failed", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "token issue failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  map[string]string{"id": user.ID, "email": user.Email},
	})
}

func (h *Handler) handleVerify(w http.ResponseWriter, _ *http.Request, claims *auth.Claims) {
	writeJSON(w, http.StatusOK, map[string]string{
		"user_id": claims.Subject,
		"email":   claims.Email,
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, _ *http.Request, claims *auth.Claims) {
	user, err := h.users.Get(claims.Subject)
	if errors.Is(err, auth.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "user lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"id":         user.ID,
		"email":      user.Email,
		"created_at": user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// handleYandexAuthorize hands out the provider consent URL. The state
// parameter is a short-lived service token carrying the user ID, so the
// callback can tie the grant back to the account without a session.
func (h *Handler) handleYandexAuthorize(w http.ResponseWriter, _ *http.Request, claims *auth.Claims) {
	if h.linker == nil {
		writeError(w, http.StatusServiceUnavailable, "provider linking is not configured")
		return
	}

	state, err := h.tokens.ServiceToken(claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "state token issue failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"auth_url": h.linker.AuthURL(state),
	})
}

func (h *Handler) handleYandexCallback(w http.ResponseWriter, r *http.Request) {
	if h.linker == nil {
		writeError(w, http.StatusServiceUnavailable, "provider linking is not configured")
		return
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		writeError(w, http.StatusBadRequest, "code and state are required")
		return
	}

	claims, err := h.tokens.Verify(state)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid state")
		return
	}

	profile, err := h.linker.Exchange(r.Context(), claims.Subject, code)
	if err != nil {
		slog.Error("provider linking failed", "user_id", claims.Subject, "error", err)
		writeError(w, http.StatusBadGateway, "provider exchange failed")
		return
	}

	slog.Info("provider linked", "user_id", claims.Subject, "login", profile.Login)
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "linked",
		"login":  profile.Login,
		"email":  profile.DefaultEmail,
	})
}

// handleYandexStatus reports whether the account holds a live provider
// token, so the frontend knows to offer linking or not.
func (h *Handler) handleYandexStatus(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	if h.linker == nil {
		writeError(w, http.StatusServiceUnavailable, "provider linking is not configured")
		return
	}

	linked, err := h.linker.Linked(r.Context(), claims.Subject)
	if err != nil {
		slog.Error("provider status lookup failed", "user_id", claims.Subject, "error", err)
		writeError(w, http.StatusInternalServerError, "provider status lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"linked": linked})
}

// handleAnalyzeEmail runs one email through the agent synchronously.
// The user ID always comes from the verified token, never the body.
func (h *Handler) handleAnalyzeEmail(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	var req struct {
		MessageID string `json:"message_id"`
		From      string `json:"from"`
		Subject   string `json:"subject"`
		Body      string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Body == "" {
		writeError(w, http.StatusBadRequest, "body is required")
		return
	}

	outcome := h.analyzer.Process(r.Context(), models.InboundEmail{
		MessageID: req.MessageID,
		From:      req.From,
		Subject:   req.Subject,
		Body:      req.Body,
		UserID:    claims.Subject,
	})

	writeJSON(w, http.StatusOK, outcome)
}

func (h *Handler) handleRecommendations(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	records, err := h.ledger.ListFor(r.Context(), claims.Subject)
	if err != nil {
		slog.Error("ledger read failed", "user_id", claims.Subject, "error", err)
		writeError(w, http.StatusInternalServerError, "ledger read failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"recommendations": records,
		"count":           len(records),
	})
}

func (h *Handler) handleNews(w http.ResponseWriter, r *http.Request) {
	if h.news == nil {
		writeError(w, http.StatusServiceUnavailable, "news is not configured")
		return
	}

	digest, err := h.news.Fetch(r.Context())
	if err != nil {
		slog.Error("news fetch failed", "error", err)
		writeError(w, http.StatusBadGateway, "news fetch failed")
		return
	}
	writeJSON(w, http.StatusOK, digest)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
