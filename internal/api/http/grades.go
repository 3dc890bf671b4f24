package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/gradecalc/internal/grading"
	"github.com/mind-engage/gradecalc/internal/session"
)

// submitReq accepts numbers or numeric strings so form fields can be posted as-is.
type submitReq struct {
	Earned json.RawMessage `json:"earned"`
	Total  json.RawMessage `json:"total"`
}

type submitResp struct {
	Entry   grading.Entry `json:"entry"`
	Alert   session.Alert `json:"alert"`
	Warning string        `json:"warning,omitempty"`
}

type errorResp struct {
	Error string `json:"error"`
	Kind  string `json:"kind"` // parse|validation|storage|confirm
	Field string `json:"field,omitempty"`
}

// POST /api/grades
func SubmitGradeHandler(ctrl *session.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp{Error: "bad json: " + err.Error(), Kind: "parse"})
			return
		}
		out, err := ctrl.SubmitInput(r.Context(), rawInput(req.Earned), rawInput(req.Total))
		if err != nil {
			writeSubmitError(w, err)
			return
		}
		resp := submitResp{Entry: out.Entry, Alert: out.Alert}
		if out.PersistErr != nil {
			resp.Warning = "result not saved: " + out.PersistErr.Error()
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func writeSubmitError(w http.ResponseWriter, err error) {
	var pe *session.ParseError
	var ve *session.ValidationError
	switch {
	case errors.As(err, &pe):
		writeJSON(w, http.StatusBadRequest, errorResp{Error: err.Error(), Kind: "parse", Field: pe.Field})
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, errorResp{Error: err.Error(), Kind: "validation"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp{Error: err.Error(), Kind: "storage"})
	}
}

// rawInput turns a JSON number, string or null into the text a form would hold.
func rawInput(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err == nil {
			return str
		}
	}
	return s
}

// GET /api/grades
func ListGradesHandler(ctrl *session.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ctrl.History())
	}
}

// DELETE /api/grades/{id}
func DeleteGradeHandler(ctrl *session.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		if id == "" {
			writeJSON(w, http.StatusBadRequest, errorResp{Error: "id required", Kind: "parse"})
			return
		}
		if err := ctrl.Delete(r.Context(), id); err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResp{Error: err.Error(), Kind: "storage"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// DELETE /api/grades?confirm=true
func ClearGradesHandler(ctrl *session.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
		cleared, err := ctrl.Clear(WithConfirmation(r.Context(), ok))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResp{Error: err.Error(), Kind: "storage"})
			return
		}
		if !cleared {
			writeJSON(w, http.StatusConflict, errorResp{Error: session.ClearPrompt, Kind: "confirm"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type confirmKey struct{}

// WithConfirmation records the caller's answer to a confirmation prompt.
func WithConfirmation(ctx context.Context, ok bool) context.Context {
	return context.WithValue(ctx, confirmKey{}, ok)
}

// QueryConfirmer answers prompts from the value stored by WithConfirmation.
// Install it on the controller served by this package.
var QueryConfirmer = session.ConfirmFunc(func(ctx context.Context, _ string) bool {
	ok, _ := ctx.Value(confirmKey{}).(bool)
	return ok
})

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
