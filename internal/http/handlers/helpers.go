package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"campusdrop/internal/apperr"
	"campusdrop/internal/auth"
	"campusdrop/internal/logx"
)

func reqID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return "-"
}

func writeJSON(logger logx.Logger, w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		logger.Warn("json encode error", logx.String("req_id", reqID(r.Context())), logx.Err(err))
	}
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(logger logx.Logger, w http.ResponseWriter, r *http.Request, status int, msg string) {
	logger.Info("http error",
		logx.String("req_id", reqID(r.Context())),
		logx.Int("status", status),
		logx.String("msg", msg),
	)
	writeJSON(logger, w, r, status, ErrorResponse{Error: msg})
}

// messages overrides the default reply text of a sentinel for one route.
type messages map[error]string

var defaultMessages = []struct {
	err    error
	status int
	msg    string
}{
	{apperr.ErrNotFound, http.StatusNotFound, "not found"},
	{apperr.ErrUnauthorized, http.StatusForbidden, "forbidden"},
	{apperr.ErrInvalidState, http.StatusConflict, "invalid state"},
	{apperr.ErrInvalidTransition, http.StatusConflict, "invalid status transition"},
	{apperr.ErrConflict, http.StatusConflict, "conflict"},
	{apperr.ErrInvalid, http.StatusBadRequest, "invalid input"},
}

// writeAppError maps a service error to its status code. Anything that is
// not a domain sentinel is a 500 and is logged at error level.
func writeAppError(logger logx.Logger, w http.ResponseWriter, r *http.Request, err error, override messages) {
	for _, m := range defaultMessages {
		if !errors.Is(err, m.err) {
			continue
		}
		msg := m.msg
		if s, ok := override[m.err]; ok {
			msg = s
		}
		writeError(logger, w, r, m.status, msg)
		return
	}
	logger.Error("request failed", logx.String("req_id", reqID(r.Context())), logx.Err(err))
	writeError(logger, w, r, http.StatusInternalServerError, "internal error")
}

const (
	bodyLimit = 1 << 20
)

func decodeJSON[T any](logger logx.Logger, w http.ResponseWriter, r *http.Request, dst *T) bool {
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(logger, w, r, http.StatusBadRequest, "invalid json")
		return false
	}
	if err := dec.Decode(new(struct{})); err != io.EOF {
		writeError(logger, w, r, http.StatusBadRequest, "invalid json: trailing data")
		return false
	}
	return true
}

func idFromURL(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, errors.New("invalid id")
	}
	return id, nil
}

// actor returns the authenticated user id or replies 401.
func actor(logger logx.Logger, w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := auth.ActorFrom(r.Context())
	if !ok {
		writeError(logger, w, r, http.StatusUnauthorized, "authorization required")
		return uuid.Nil, false
	}
	return id, true
}

// actorAndID combines actor and idFromURL.
func actorAndID(logger logx.Logger, w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, uuid.UUID, bool) {
	actorID, ok := actor(logger, w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	id, err := idFromURL(r, name)
	if err != nil {
		writeError(logger, w, r, http.StatusBadRequest, "invalid id")
		return uuid.Nil, uuid.Nil, false
	}
	return actorID, id, true
}
