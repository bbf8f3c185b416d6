package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"fraxion.org/internal/auth"
)

// Machine-readable codes clients dispatch on. Everything else is identified
// by status alone.
const (
	codeInvalidSignature   = "INVALID_SIGNATURE"
	codeAccountDeactivated = "ACCOUNT_DEACTIVATED"
)

type errorBody struct {
	Code       string `json:"code,omitempty"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	RequestID  string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeErrorCode(w, r, status, "", msg)
}

func writeErrorCode(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	body := errorBody{
		Code:       code,
		StatusCode: status,
		Message:    msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		body.RequestID = rid
	}
	writeJSON(w, status, body)
}

// handleAuthError maps the closed auth error set onto the HTTP envelope.
func handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredential):
		writeErrorCode(w, r, http.StatusUnauthorized, codeInvalidSignature, "invalid address or signData")
	case errors.Is(err, auth.ErrDeactivated):
		writeErrorCode(w, r, http.StatusUnauthorized, codeAccountDeactivated, "account is deactivated")
	case errors.Is(err, auth.ErrInvalidToken):
		writeError(w, r, http.StatusUnauthorized, "invalid or expired token")
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, r, http.StatusForbidden, trimAuthPrefix(err))
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "account not found")
	case errors.Is(err, auth.ErrConflict):
		writeError(w, r, http.StatusConflict, "account already exists")
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, trimAuthPrefix(err))
	case errors.Is(err, auth.ErrUpstream):
		writeError(w, r, http.StatusBadGateway, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// trimAuthPrefix strips the package prefix so envelope messages stay
// client-facing.
func trimAuthPrefix(err error) string {
	return strings.TrimPrefix(err.Error(), "auth: ")
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}
