// Package response writes the JSON envelopes every API route answers with.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"dispatcher/infrastructure/orderstore"
	"dispatcher/infrastructure/remote"
	"dispatcher/infrastructure/syncer"
)

type envelope struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, envelope{Data: data})
}

func Error(w http.ResponseWriter, status int, msg string) {
	write(w, status, envelope{Error: msg})
}

// Err maps a domain error to its status and writes it.
func Err(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway && status != http.StatusGatewayTimeout {
		slog.Error("request failed", slog.Any("err", err))
	}
	Error(w, status, err.Error())
}

func StatusFor(err error) int {
	var apiErr *remote.APIError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, orderstore.ErrOrderNotFound), errors.Is(err, orderstore.ErrMaterialNotFound):
		return http.StatusNotFound
	case errors.Is(err, syncer.ErrNotReady):
		return http.StatusConflict
	case errors.Is(err, remote.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, remote.ErrUnexpectedShape), errors.Is(err, orderstore.ErrDuplicateMaterial), errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encode response failed", slog.Any("err", err))
	}
}

// Decode reads a JSON request body into v, rejecting unknown fields.
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
