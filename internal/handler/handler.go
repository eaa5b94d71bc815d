// Package handler holds shared plumbing for the JSON API handlers:
// response encoding and the mapping from domain error codes to HTTP
// statuses.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gupfee/greenhaus/internal/domain"
)

// codeStatus maps domain error codes to HTTP status codes. Codes not
// listed fall through to 500.
var codeStatus = map[string]int{
	domain.EINVALID:           http.StatusBadRequest,
	domain.ENOTFOUND:          http.StatusNotFound,
	domain.EINSUFFICIENTSTOCK: http.StatusConflict,
	domain.EDISCOUNT:          http.StatusUnprocessableEntity,
	domain.ESHIPPINGTIER:      http.StatusBadRequest,
	domain.EPERSISTENCE:       http.StatusServiceUnavailable,
	domain.EORDERSUBMIT:       http.StatusBadGateway,
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// RespondJSON writes v as JSON with the given status.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Error writes a JSON error response derived from err's domain code and
// message. Internal errors are logged and masked with a generic message.
func Error(w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	status, ok := codeStatus[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	var body errorBody
	body.Error.Code = code
	body.Error.Message = domain.ErrorMessage(err)

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		body.Error.Message = "An internal error has occurred."
	}

	RespondJSON(w, status, body)
}

// Decode reads a JSON request body into v, rejecting unknown fields.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.WrapError(err, domain.EINVALID, "handler.decode", "Invalid request body")
	}
	return nil
}
