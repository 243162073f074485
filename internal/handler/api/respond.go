// Package api implements the JSON HTTP handlers.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hojin-choi/oreum/internal/domain"
)

// respond writes a JSON body with the given status.
func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

// errorBody is the uniform error envelope. OrderNumber is set only on the
// duplicate-order conflict, so a retried checkout can recover its order.
type errorBody struct {
	Error       string `json:"error"`
	OrderNumber string `json:"orderNumber,omitempty"`
}

// respondError maps a domain error onto an HTTP status and the error
// envelope. Internal details are logged, never sent to the client.
func respondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	code := domain.ErrorCode(err)
	status := statusForCode(code)

	if code == domain.EINTERNAL {
		logger.Error("request failed", slog.String("error", err.Error()))
	}

	body := errorBody{Error: domain.ErrorMessage(err)}
	var dup *domain.DuplicateOrderError
	if errors.As(err, &dup) {
		body.Error = "order already processed"
		body.OrderNumber = dup.OrderNumber
	}

	respond(w, status, body)
}

// statusForCode maps domain error codes to HTTP statuses. Business
// rejections of a checkout, including the duplicate conflict and payment
// failures, are all client errors.
func statusForCode(code string) int {
	switch code {
	case domain.EINVALID, domain.ECONFLICT, domain.EPAYMENT:
		return http.StatusBadRequest
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.EFORBIDDEN:
		return http.StatusForbidden
	case domain.ENOTFOUND:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// decode parses a JSON request body into dst.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Invalid("api.decode", "invalid request body")
	}
	return nil
}
