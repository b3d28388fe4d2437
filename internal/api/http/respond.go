package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	auth "github.com/mind-engage/mindengage-qbank/internal/auth/middleware"
	"github.com/mind-engage/mindengage-qbank/internal/bank"
)

// problem is the body of every error response.
type problem struct {
	Entity   string `json:"entity,omitempty"`
	ErrorKey string `json:"error_key"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func respondProblem(w http.ResponseWriter, status int, p problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(p)
}

// respondError maps bank errors to status codes. Anything unrecognized is a
// 500 whose cause is logged, not sent.
func respondError(log *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	p := problem{ErrorKey: "internal", Message: err.Error()}
	var ee *bank.EntityError
	if errors.As(err, &ee) {
		p.Entity, p.ErrorKey, p.Field = ee.Entity, ee.Key, ee.Field
	}
	if status == http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"sub", auth.SubjectFromContext(r.Context()), "err", err)
		p.Message = "internal server error"
	}
	respondProblem(w, status, p)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, bank.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, bank.ErrValidation),
		errors.Is(err, bank.ErrIDPresentOnCreate),
		errors.Is(err, bank.ErrIDNullOnUpdate),
		errors.Is(err, bank.ErrIDMismatch):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondProblem(w, http.StatusBadRequest, problem{ErrorKey: "badjson", Message: "bad json: " + err.Error()})
		return false
	}
	return true
}

// mergePatchTypes are the content types accepted by PATCH.
var mergePatchTypes = map[string]bool{
	"application/json":             true,
	"application/merge-patch+json": true,
}

func acceptsPatch(w http.ResponseWriter, r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil || !mergePatchTypes[mt] {
		respondProblem(w, http.StatusUnsupportedMediaType, problem{
			ErrorKey: "unsupportedmediatype", Message: "unsupported content type " + ct,
		})
		return false
	}
	return true
}

// urlID reads a numeric path parameter. Routes constrain the pattern, so a
// failure here means the value overflowed int64.
func urlID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		respondProblem(w, http.StatusBadRequest, problem{ErrorKey: "idinvalid", Message: "invalid id " + chi.URLParam(r, name)})
		return 0, false
	}
	return id, true
}

func boolQuery(r *http.Request, name string, def bool) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return v
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
