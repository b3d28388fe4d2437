package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-qbank/internal/bank"
	"github.com/mind-engage/mindengage-qbank/internal/rbac"
)

type memberIDs struct {
	IDs []int64 `json:"ids"`
}

// mountAssociation registers the collection routes of one relationship below
// an owner item route, e.g. /agencies/{id}/exams.
func mountAssociation[O, C any](r chi.Router, name string, a *bank.Association[O, C], log *slog.Logger) {
	read := rbac.Require(rbac.PermBankRead)
	write := rbac.Require(rbac.PermBankWrite)

	// GET /{owners}/{id}/{children}
	r.With(read).Get("/"+name, func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}
		out, err := a.Members(r.Context(), id)
		if err != nil {
			respondError(log, w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, out)
	})

	// PUT /{owners}/{id}/{children}  {"ids":[...]}
	r.With(write).Put("/"+name, func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}
		var req memberIDs
		if !decodeJSON(w, r, &req) {
			return
		}
		out, err := a.Replace(r.Context(), id, req.IDs)
		if err != nil {
			respondError(log, w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, out)
	})

	member := func(op func(*http.Request, int64, int64) (O, error)) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			id, ok := urlID(w, r, "id")
			if !ok {
				return
			}
			childID, ok := urlID(w, r, "childID")
			if !ok {
				return
			}
			out, err := op(r, id, childID)
			if err != nil {
				respondError(log, w, r, err)
				return
			}
			respondJSON(w, http.StatusOK, out)
		}
	}

	// POST|DELETE /{owners}/{id}/{children}/{childID}
	r.With(write).Post("/"+name+"/{childID:[0-9]+}", member(func(r *http.Request, id, childID int64) (O, error) {
		return a.Add(r.Context(), id, childID)
	}))
	r.With(write).Delete("/"+name+"/{childID:[0-9]+}", member(func(r *http.Request, id, childID int64) (O, error) {
		return a.Remove(r.Context(), id, childID)
	}))
}
