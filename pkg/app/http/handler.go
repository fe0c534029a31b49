// Package http holds the relayer's HTTP plumbing: error-returning handlers,
// JSON responses, access logging, bearer-token auth and graceful serving.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/chainsafe/copytrade-relayer/pkg/app/errors"
)

// HandlerFunc is an http handler that reports failure by returning an error
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// HandleError adapts h to http.HandlerFunc. Errors are rendered by
// DefaultErrorHandler.
//
//	r.Get("/runs/{id}", apphttp.HandleError(h.getRun))
func HandleError(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			DefaultErrorHandler(w, err)
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// DefaultErrorHandler writes err as a JSON body. Service errors keep their
// message and category status; anything else is a bare 500.
func DefaultErrorHandler(w http.ResponseWriter, err error) {
	var svcErr *apperrors.ServiceError
	if errors.As(err, &svcErr) {
		msg := svcErr.Message
		if msg == "" {
			msg = svcErr.Error()
		}
		WriteJSON(w, svcErr.StatusCode(), errorResponse{Error: msg, Code: svcErr.StatusCode()})
		return
	}
	WriteJSON(w, http.StatusInternalServerError, errorResponse{
		Error: "Unexpected Service Error",
		Code:  http.StatusInternalServerError,
	})
}

// WriteJSON writes v with the given status code
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
