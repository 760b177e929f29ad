package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"storefront/pkg/order"
	"storefront/pkg/product"
	"storefront/pkg/session"
	"storefront/pkg/user"
	"storefront/pkg/validation"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

var errBadBody = errors.New("invalid request body")

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errBadBody
	}
	return nil
}

// fail maps domain errors onto responses. Anything unrecognised is logged
// and reported without detail.
func (h *handlers) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	var verr *validation.Error
	switch {
	case errors.Is(err, errBadBody):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, product.ErrNotFound):
		writeError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, user.ErrNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, user.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email already in use")
	case errors.Is(err, order.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, user.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	default:
		h.Log.Error(ctx, op, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
