package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/unblurhq/unblur/pkg/billing"
	"github.com/unblurhq/unblur/pkg/deblur"
	"github.com/unblurhq/unblur/pkg/objectstore"
	"github.com/unblurhq/unblur/pkg/plan"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps domain errors onto HTTP statuses. Unrecognized errors
// hide their detail behind a generic 500 so internals do not leak.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status := http.StatusInternalServerError
	msg := "internal server error"

	switch {
	case errors.Is(err, billing.ErrAccountNotFound), errors.Is(err, deblur.ErrJobNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, billing.ErrInsufficientCredit):
		status, msg = http.StatusPaymentRequired, err.Error()
	case errors.Is(err, billing.ErrMissingIdentityID),
		errors.Is(err, billing.ErrMissingCustomerID),
		errors.Is(err, deblur.ErrEmptyImageURL),
		errors.Is(err, deblur.ErrEmptyRequestID),
		errors.Is(err, objectstore.ErrEmptyFileName),
		errors.Is(err, plan.ErrEmptyPriceID),
		errors.Is(err, plan.ErrPlanNotFound),
		errors.Is(err, plan.ErrPackageNotFound),
		errors.Is(err, errBadRequest):
		status, msg = http.StatusBadRequest, err.Error()
	}

	if status == http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

var errBadRequest = errors.New("invalid request body")

// decodeJSON parses the request body into v, limiting size to keep abusive
// payloads off the heap.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}
