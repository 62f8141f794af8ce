package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/billbatista/acasinha-splits/group"
	"github.com/billbatista/acasinha-splits/ledger"
	"github.com/billbatista/acasinha-splits/user"
)

var errMalformedBody = errors.New("malformed JSON body")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(errMalformedBody, err)
	}
	return nil
}

// writeError maps service and ledger errors onto status codes. Anything
// unrecognized is logged and reported as a 500 without details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		writeJSON(w, status, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case ledger.IsValidation(err), ledger.IsUnsupportedPolicy(err):
		return http.StatusBadRequest
	case errors.Is(err, errMalformedBody),
		errors.Is(err, user.ErrEmptyName),
		errors.Is(err, group.ErrEmptyName),
		errors.Is(err, group.ErrNoMembers),
		errors.Is(err, group.ErrNotMember),
		errors.Is(err, group.ErrInvalidAmount),
		errors.Is(err, group.ErrSelfSettlement):
		return http.StatusBadRequest
	case errors.Is(err, group.ErrGroupNotFound), errors.Is(err, group.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, group.ErrGroupNameTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
