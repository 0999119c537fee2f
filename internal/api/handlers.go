package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/eduhub/eduhub-backend/internal/cache"
	"github.com/eduhub/eduhub-backend/internal/config"
	"github.com/eduhub/eduhub-backend/internal/crypto"
	"github.com/eduhub/eduhub-backend/internal/metrics"
	"github.com/eduhub/eduhub-backend/internal/model"
	"github.com/eduhub/eduhub-backend/internal/session"
	"github.com/eduhub/eduhub-backend/internal/store"
	"github.com/eduhub/eduhub-backend/internal/ws"
)

type Handler struct {
	store    store.Storage
	sessions *session.Manager
	cache    *cache.Cache
	wsHub    *ws.Hub
	config   *config.Config
	logger   *zap.SugaredLogger
	metrics  *metrics.Metrics
}

func NewHandler(
	st store.Storage,
	sessions *session.Manager,
	c *cache.Cache,
	wsHub *ws.Hub,
	cfg *config.Config,
	logger *zap.SugaredLogger,
	m *metrics.Metrics,
) *Handler {
	return &Handler{
		store:    st,
		sessions: sessions,
		cache:    c,
		wsHub:    wsHub,
		config:   cfg,
		logger:   logger,
		metrics:  m,
	}
}

// Auth endpoints

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_BODY", "malformed JSON body")
		return
	}

	if req.Email == "" || req.Password == "" || req.FullName == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "email, password and fullName are required")
		return
	}
	if !model.ValidRole(req.Role) {
		h.writeError(w, http.StatusBadRequest, "INVALID_ROLE", fmt.Sprintf("unknown role %q", req.Role))
		return
	}

	// Uniqueness is enforced here, before insert; the store only offers
	// the case-insensitive lookup.
	if existing := h.store.GetUserByEmail(r.Context(), req.Email); existing != nil {
		h.writeError(w, http.StatusConflict, "EMAIL_TAKEN", "an account with this email already exists")
		return
	}

	hash, err := crypto.HashPassword(req.Password, h.config.Session.BcryptCost)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "HASH_ERROR", "failed to process password")
		return
	}

	user, err := h.store.CreateUser(r.Context(), model.User{
		Email:          req.Email,
		Password:       hash,
		FullName:       req.FullName,
		Phone:          req.Phone,
		Role:           req.Role,
		SchoolName:     req.SchoolName,
		Age:            req.Age,
		Grade:          req.Grade,
		Address:        req.Address,
		TeachingGrades: req.TeachingGrades,
		CEOName:        req.CEOName,
	})
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "STORE_ERROR", err.Error())
		return
	}

	sess, err := h.sessions.Create(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "SESSION_ERROR", err.Error())
		return
	}

	h.setSessionCookie(w, sess.Token, h.config.Session.TTL)
	h.writeJSON(w, http.StatusCreated, AuthResponse{Token: sess.Token, User: user})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_BODY", "malformed JSON body")
		return
	}

	user := h.store.GetUserByEmail(r.Context(), req.Email)
	if user == nil || crypto.CheckPassword(user.Password, req.Password) != nil {
		h.writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
		return
	}

	sess, err := h.sessions.Create(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "SESSION_ERROR", err.Error())
		return
	}

	h.setSessionCookie(w, sess.Token, h.config.Session.TTL)
	h.writeJSON(w, http.StatusOK, AuthResponse{Token: sess.Token, User: user})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	if err := h.sessions.Delete(r.Context(), sess.Token); err != nil {
		h.writeError(w, http.StatusInternalServerError, "SESSION_ERROR", err.Error())
		return
	}
	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	user := h.store.GetUser(r.Context(), sess.UserID)
	if user == nil {
		h.writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "user no longer exists")
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// Demo mode

func (h *Handler) StartDemo(w http.ResponseWriter, r *http.Request) {
	var req DemoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_BODY", "malformed JSON body")
		return
	}

	sess, user, err := h.sessions.CreateDemo(r.Context(), req.Role)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRole) {
			h.writeError(w, http.StatusBadRequest, "INVALID_ROLE", fmt.Sprintf("unknown role %q", req.Role))
			return
		}
		h.writeError(w, http.StatusInternalServerError, "DEMO_ERROR", err.Error())
		return
	}

	h.setSessionCookie(w, sess.Token, time.Until(sess.Deadline))
	h.writeJSON(w, http.StatusCreated, AuthResponse{Token: sess.Token, IsDemo: true, User: user})
}

func (h *Handler) DemoCountdown(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	if !sess.IsDemo {
		h.writeError(w, http.StatusBadRequest, "NOT_DEMO", "not a demo session")
		return
	}

	cd, ok := h.sessions.Countdown(sess.Token)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "SESSION_EXPIRED", "demo session has expired")
		return
	}
	h.writeJSON(w, http.StatusOK, CountdownDTO{TimeLeft: cd.TimeLeft, IsExpiring: cd.Expiring})
}

// DemoStream feeds the countdown over SSE, one event per second, and
// closes with an expired event. The browser drives its banner and the
// final redirect off this stream.
func (h *Handler) DemoStream(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	if !sess.IsDemo {
		h.writeError(w, http.StatusBadRequest, "NOT_DEMO", "not a demo session")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "STREAMING_UNSUPPORTED", "response writer does not support streaming")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	send := func() bool {
		cd, live := h.sessions.Countdown(sess.Token)
		if !live || cd.TimeLeft == 0 {
			fmt.Fprintf(w, "event: expired\ndata: {}\n\n")
			flusher.Flush()
			return false
		}
		data, _ := json.Marshal(CountdownDTO{TimeLeft: cd.TimeLeft, IsExpiring: cd.Expiring})
		fmt.Fprintf(w, "event: countdown\ndata: %s\n\n", data)
		flusher.Flush()
		return true
	}

	if !send() {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if !send() {
				return
			}
		}
	}
}

// WebSocket endpoint

func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	h.wsHub.HandleWebSocket(w, r, sess.UserID)
}

// Health endpoints

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Ping(r.Context()); err != nil {
		h.writeError(w, http.StatusServiceUnavailable, "CACHE_UNAVAILABLE", err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}

// Cookie helpers

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.config.IsProd(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// Utility methods

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeError(w, h.logger, status, code, message)
}

func writeError(w http.ResponseWriter, logger *zap.SugaredLogger, status int, code, message string) {
	if status >= http.StatusInternalServerError {
		logger.Errorw("API error", "code", code, "message", message, "status", status)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Code: code, Message: message})
}
