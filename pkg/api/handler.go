// Package api provides the HTTP endpoints of the activities service: the
// public catalog listing, teacher login/logout, and the authenticated roster
// mutations.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/mergington/activities/pkg/catalog"
	"github.com/mergington/activities/pkg/credentials"
	"github.com/mergington/activities/pkg/session"
)

// Config holds the collaborators for a Handler.
type Config struct {
	Credentials *credentials.Store
	Sessions    session.Store
	Catalog     *catalog.Catalog

	// SessionTTL sets the session cookie max-age. It should match the
	// session store's TTL.
	SessionTTL time.Duration

	// CookieHashKey is the HMAC key for tamper-evident cookie encoding.
	// When empty, a random per-process key is used.
	CookieHashKey []byte
}

// Handler serves the activities API.
type Handler struct {
	creds    *credentials.Store
	sessions session.Store
	catalog  *catalog.Catalog
	cookies  *securecookie.SecureCookie
	ttl      time.Duration
}

// NewHandler creates a Handler from its collaborators.
func NewHandler(cfg Config) *Handler {
	key := cfg.CookieHashKey
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
	}
	return &Handler{
		creds:    cfg.Credentials,
		sessions: cfg.Sessions,
		catalog:  cfg.Catalog,
		cookies:  securecookie.New(key, nil),
		ttl:      cfg.SessionTTL,
	}
}

// RegisterRoutes adds all API routes to mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /activities", h.handleListActivities)
	mux.HandleFunc("POST /activities/{name}/signup", h.handleSignup)
	mux.HandleFunc("DELETE /activities/{name}/unregister", h.handleUnregister)
	mux.HandleFunc("POST /login", h.handleLogin)
	mux.HandleFunc("POST /logout", h.handleLogout)
	mux.HandleFunc("GET /auth/status", h.handleAuthStatus)
}

// loginRequest is the POST /login body.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the successful POST /login body.
type loginResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

// messageResponse is the generic confirmation body.
type messageResponse struct {
	Message string `json:"message"`
}

// statusResponse is the GET /auth/status body.
type statusResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response. The "detail" field name matches
// the wire format existing clients consume.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}
