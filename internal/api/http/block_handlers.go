package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/edunexus/mentoring-block/internal/auth/middleware"
	"github.com/edunexus/mentoring-block/internal/mentoring"
)

// Registry resolves a block id to its coordinator.
type Registry map[string]*mentoring.Coordinator

func (r Registry) lookup(w http.ResponseWriter, req *http.Request) (*mentoring.Coordinator, string, bool) {
	c, ok := r[chi.URLParam(req, "blockID")]
	if !ok {
		http.Error(w, "block not found", http.StatusNotFound)
		return nil, "", false
	}
	userID := auth.SubjectFromContext(req.Context())
	if userID == "" {
		http.Error(w, "missing subject", http.StatusUnauthorized)
		return nil, "", false
	}
	return c, userID, true
}

func SubmitHandler(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, userID, ok := reg.lookup(w, r)
		if !ok {
			return
		}
		var submissions map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&submissions); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		resp, err := c.Submit(r.Context(), userID, submissions)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func TryAgainHandler(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, userID, ok := reg.lookup(w, r)
		if !ok {
			return
		}
		resp, err := c.TryAgain(r.Context(), userID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func GetResultsHandler(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, userID, ok := reg.lookup(w, r)
		if !ok {
			return
		}
		var queries []string
		if err := json.NewDecoder(r.Body).Decode(&queries); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		resp, err := c.GetResults(r.Context(), userID, queries)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func ViewHandler(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, userID, ok := reg.lookup(w, r)
		if !ok {
			return
		}
		resp, err := c.View(r.Context(), userID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
