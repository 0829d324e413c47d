package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/fantienan/open-ai-dashboard/internal/state"
	"github.com/fantienan/open-ai-dashboard/pkg/biz"
)

// handlerFunc returns the data of a successful envelope or an error.
type handlerFunc func(r *http.Request) (any, error)

// handle adapts fn to an http.HandlerFunc that answers with the envelope.
func (s *Server) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := fn(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, biz.Success(data))
	}
}

// writeError maps err to an HTTP status and a failed envelope.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var nf *state.NotFoundError
	if errors.As(err, &nf) {
		err = biz.NotFound(notFoundMessage(nf.Entity))
	}
	be := biz.From(err)
	if be.Status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, be.Status, be.Envelope())
}

// notFoundMessage capitalizes entity, e.g. "chat" gives "Chat not found".
func notFoundMessage(entity string) string {
	if entity == "" {
		return "Not found"
	}
	return strings.ToUpper(entity[:1]) + entity[1:] + " not found"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return biz.Invalid(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

func requireParam(r *http.Request, name string) (string, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return "", biz.Invalid(name + " is required")
	}
	return v, nil
}
