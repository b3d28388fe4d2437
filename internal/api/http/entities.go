package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-qbank/internal/bank"
	"github.com/mind-engage/mindengage-qbank/internal/rbac"
)

// entityHandlers serves the REST surface of one entity.
type entityHandlers[T, P any] struct {
	svc  *bank.Service[T, P]
	base string // /api/exams
	id   func(*T) int64
	log  *slog.Logger
}

// mountEntity registers the collection and item routes of one entity under
// path. nested mounts extra routes below /{id}.
func mountEntity[T, P any](r chi.Router, path string, h entityHandlers[T, P], nested func(chi.Router)) {
	read := rbac.Require(rbac.PermBankRead)
	write := rbac.Require(rbac.PermBankWrite)

	r.Route(path, func(er chi.Router) {
		er.With(read).Get("/", h.list)
		er.With(write).Post("/", h.create)
		er.Route("/{id:[0-9]+}", func(ir chi.Router) {
			ir.With(read).Get("/", h.get)
			ir.With(write).Put("/", h.update)
			ir.With(write).Patch("/", h.patch)
			ir.With(write).Delete("/", h.delete)
			if nested != nil {
				nested(ir)
			}
		})
	})
}

// POST /{entities}
func (h entityHandlers[T, P]) create(w http.ResponseWriter, r *http.Request) {
	var v T
	if !decodeJSON(w, r, &v) {
		return
	}
	out, err := h.svc.Create(r.Context(), v)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("%s/%d", h.base, h.id(&out)))
	respondJSON(w, http.StatusCreated, out)
}

// PUT /{entities}/{id}
func (h entityHandlers[T, P]) update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var v T
	if !decodeJSON(w, r, &v) {
		return
	}
	out, err := h.svc.Update(r.Context(), id, v)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// PATCH /{entities}/{id}
func (h entityHandlers[T, P]) patch(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok || !acceptsPatch(w, r) {
		return
	}
	var p P
	if !decodeJSON(w, r, &p) {
		return
	}
	out, err := h.svc.PartialUpdate(r.Context(), id, p)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// GET /{entities}/{id}?eagerload=true
func (h entityHandlers[T, P]) get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	out, err := h.svc.Get(r.Context(), id, boolQuery(r, "eagerload", true))
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// GET /{entities}?eagerload=false
func (h entityHandlers[T, P]) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.List(r.Context(), boolQuery(r, "eagerload", false))
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// DELETE /{entities}/{id}
func (h entityHandlers[T, P]) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		respondError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
