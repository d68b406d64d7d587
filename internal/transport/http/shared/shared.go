// Package shared holds the response and decoding helpers every HTTP handler
// uses, so error envelopes and content handling stay uniform across routes.
package shared

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "tombola/pkg/domain-errors"
)

// maxBodyBytes caps request bodies. Raffle payloads are small; anything
// larger is hostile or broken.
const maxBodyBytes = 1 << 20

// errorResponse is the JSON envelope for all error replies.
type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteJSON writes payload with the given status. Encoding failures are
// unrecoverable at this point because the status line is already out.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// WriteError maps a coded error to its HTTP status and JSON envelope.
// Internal and invariant failures omit the description so server details
// never reach clients; everything else echoes the domain message.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := errorResponse{Error: string(code)}
	switch code {
	case dErrors.CodeInternal, dErrors.CodeInvariantViolation:
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			resp.Description = de.Message
		}
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), resp)
}

// DecodeJSON reads a size-capped JSON body into dst. Returns a coded
// bad-request error on malformed input so handlers can pass it straight to
// WriteError.
func DecodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	defer io.Copy(io.Discard, body)

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	if dec.More() {
		return dErrors.New(dErrors.CodeBadRequest, "request body must contain a single JSON object")
	}
	return nil
}

// Validatable is implemented by request DTOs that check and parse their own
// fields.
type Validatable interface {
	Validate() error
}

// validatablePtr lets DecodeAndPrepare accept a value type while calling
// the pointer-receiver Validate.
type validatablePtr[T any] interface {
	*T
	Validatable
}

// DecodeAndPrepare decodes the body into a fresh T and validates it,
// writing the error response itself on failure. The second return is false
// when the handler should stop.
func DecodeAndPrepare[T any, PT validatablePtr[T]](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (PT, bool) {
	req := PT(new(T))
	if err := DecodeJSON(r, req); err != nil {
		logger.WarnContext(r.Context(), "request decode failed", "error", err)
		WriteError(w, err)
		return nil, false
	}
	if err := req.Validate(); err != nil {
		logger.WarnContext(r.Context(), "request validation failed", "error", err)
		WriteError(w, err)
		return nil, false
	}
	return req, true
}
