package http

import (
	"net/http"

	"github.com/mind-engage/gradecalc/internal/session"
)

// GET /api/session
func GetSessionHandler(ctrl *session.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ctrl.View())
	}
}

// POST /api/session/reset
func ResetSessionHandler(ctrl *session.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ctrl.ResetInputs())
	}
}

// POST /api/session/dismiss
func DismissAlertHandler(ctrl *session.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ctrl.DismissAlert())
	}
}
