package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mergington/activities/pkg/catalog"
)

// handleListActivities returns the full catalog snapshot. No auth required.
func (h *Handler) handleListActivities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.List())
}

// handleSignup adds a student email to an activity roster. Requires a valid
// teacher session.
func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	sess := h.currentSession(r)
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	name := r.PathValue("name")
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "Missing email query parameter")
		return
	}

	if err := h.catalog.Signup(name, email); err != nil {
		writeRosterError(w, err)
		return
	}

	slog.Info("api: student signed up",
		"activity", name, "email", email, "teacher", sess.Username)
	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Signed up %s for %s", email, name),
	})
}

// handleUnregister removes a student email from an activity roster. Requires
// a valid teacher session.
func (h *Handler) handleUnregister(w http.ResponseWriter, r *http.Request) {
	sess := h.currentSession(r)
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	name := r.PathValue("name")
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "Missing email query parameter")
		return
	}

	if err := h.catalog.Unregister(name, email); err != nil {
		writeRosterError(w, err)
		return
	}

	slog.Info("api: student unregistered",
		"activity", name, "email", email, "teacher", sess.Username)
	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Unregistered %s from %s", email, name),
	})
}

// writeRosterError maps catalog errors onto HTTP status codes.
func writeRosterError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "Activity not found")
	case errors.Is(err, catalog.ErrAlreadyRegistered):
		writeError(w, http.StatusBadRequest, "Student is already signed up")
	case errors.Is(err, catalog.ErrNotRegistered):
		writeError(w, http.StatusBadRequest, "Student is not signed up for this activity")
	case errors.Is(err, catalog.ErrFull):
		writeError(w, http.StatusBadRequest, "Activity is full")
	default:
		slog.Error("api: roster operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
