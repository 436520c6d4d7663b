package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/snaptunes/internal/models"
	"github.com/desertthunder/snaptunes/internal/shared"
	"github.com/desertthunder/snaptunes/internal/tasks"
)

const (
	stateCookie   = "snaptunes_oauth_state"
	sessionCookie = "snaptunes_session"
	stateTTL      = 10 * time.Minute
)

// authHandler serves the browser side of the authorization code flow.
type authHandler struct {
	server *Server
}

func (h *authHandler) Routes() []string {
	return []string{
		"GET /auth/spotify",
		"GET /auth/spotify/callback",
		"POST /auth/logout",
	}
}

func (h *authHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/auth/logout":
		h.logout(w, r)
	case r.URL.Path == "/auth/spotify/callback":
		h.callback(w, r)
	default:
		h.begin(w, r)
	}
}

func (h *authHandler) begin(w http.ResponseWriter, r *http.Request) {
	state, err := shared.GenerateState()
	if err != nil {
		writeError(w, err, msgAuthFailed)
		return
	}

	http.SetCookie(w, h.cookie(stateCookie, state, stateTTL))
	http.Redirect(w, r, h.server.opts.Broker.BeginAuthorization(state), http.StatusFound)
}

// callback checks the code before the state so a denied consent reports as a missing code.
func (h *authHandler) callback(w http.ResponseWriter, r *http.Request) {
	logger := h.server.logger
	q := r.URL.Query()
	http.SetCookie(w, h.cookie(stateCookie, "", -1))

	if strings.TrimSpace(q.Get("code")) == "" {
		if reason := q.Get("error"); reason != "" {
			logger.Warn("authorization denied", "error", reason)
		}
		writeError(w, shared.ErrMissingCode, msgAuthFailed)
		return
	}

	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || c.Value != q.Get("state") {
		writeError(w, shared.ErrStateMismatch, msgAuthFailed)
		return
	}

	cred, err := h.server.opts.Broker.CompleteAuthorization(r.Context(), q.Get("code"))
	if err != nil {
		logger.Error("token exchange failed", "error", err)
		writeError(w, err, msgAuthFailed)
		return
	}

	if h.server.opts.TokenHandoff == shared.HandoffSession {
		h.handoffSession(w, r, cred)
		return
	}

	target, err := tasks.HandoffURL(h.server.opts.AppURL, cred)
	if err != nil {
		writeError(w, err, msgAuthFailed)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *authHandler) handoffSession(w http.ResponseWriter, r *http.Request, cred models.Credential) {
	id, err := h.server.sessions.Create(cred)
	if err != nil {
		writeError(w, err, msgAuthFailed)
		return
	}

	http.SetCookie(w, h.cookie(sessionCookie, id, h.server.sessions.TTL()))
	http.Redirect(w, r, h.server.opts.AppURL, http.StatusFound)
}

func (h *authHandler) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		h.server.sessions.Delete(c.Value)
	}
	http.SetCookie(w, h.cookie(sessionCookie, "", -1))
	w.WriteHeader(http.StatusNoContent)
}

// cookie builds an HttpOnly cookie. A negative ttl deletes it.
func (h *authHandler) cookie(name, value string, ttl time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.server.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(ttl / time.Second)
	}
	return c
}

// credentialFrom resolves the caller's credential from the request body token, an
// Authorization bearer header, or the session cookie, in that order.
func (s *Server) credentialFrom(r *http.Request, bodyToken string) (models.Credential, error) {
	if t := strings.TrimSpace(bodyToken); t != "" {
		return models.Credential{AccessToken: t}, nil
	}

	if auth := r.Header.Get("Authorization"); auth != "" {
		scheme, token, ok := strings.Cut(auth, " ")
		if ok && strings.EqualFold(scheme, "Bearer") && strings.TrimSpace(token) != "" {
			return models.Credential{AccessToken: strings.TrimSpace(token)}, nil
		}
	}

	if c, err := r.Cookie(sessionCookie); err == nil {
		if cred, ok := s.sessions.Get(c.Value); ok {
			return cred, nil
		}
	} else if !errors.Is(err, http.ErrNoCookie) {
		return models.Credential{}, err
	}

	return models.Credential{}, shared.ErrNotAuthenticated
}
