package server

import (
	"encoding/json"
	"errors"
	"net/http"

	apperr "github.com/matzehuels/bpcgraph/pkg/errors"
	"github.com/matzehuels/bpcgraph/pkg/graph"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondJSON(w, http.StatusRequestEntityTooLarge, graph.ErrorInfo{
			Code:    apperr.ErrCodeInvalidInput,
			Message: "request body too large",
		})
		return
	}
	if errors.Is(err, errMethod) {
		respondJSON(w, http.StatusMethodNotAllowed, graph.NewErrorInfo(err))
		return
	}
	respondJSON(w, apperr.HTTPStatus(err), graph.NewErrorInfo(err))
}

var errMethod = errors.New("method not allowed")

func errNotFound(r *http.Request) error {
	return apperr.New(apperr.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path)
}

func errMethodNotAllowed(r *http.Request) error {
	return apperr.Wrap(apperr.ErrCodeInvalidInput, errMethod, "%s not allowed on %s", r.Method, r.URL.Path)
}

func setCacheHeader(w http.ResponseWriter, hit bool) {
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
}
