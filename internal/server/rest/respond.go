package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/gophgate/internal/common"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type errorKind struct {
	err    error
	status int
	code   string
}

// errorKinds is checked in order; the first match wins.
var errorKinds = []errorKind{
	{common.ErrValidation, http.StatusBadRequest, "validation_error"},
	{common.ErrCannotDeleteSelf, http.StatusBadRequest, "cannot_delete_self"},
	{common.ErrCannotDemoteSelf, http.StatusBadRequest, "cannot_demote_self"},
	{common.ErrDuplicateHandle, http.StatusConflict, "duplicate_handle"},
	{common.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{common.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{common.ErrAccountDisabled, http.StatusForbidden, "account_disabled"},
	{common.ErrForbidden, http.StatusForbidden, "forbidden"},
	{common.ErrNotFound, http.StatusNotFound, "not_found"},
	{common.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status and a JSON body. Validation errors keep
// their detail; everything else is reported by kind only.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, k := range errorKinds {
		if !errors.Is(err, k.err) {
			continue
		}
		msg := k.err.Error()
		if k.err == common.ErrValidation {
			msg = err.Error()
		}
		if k.status == http.StatusUnauthorized && k.err == common.ErrUnauthorized {
			w.Header().Set("WWW-Authenticate", common.BearerScheme)
		}
		writeJSON(w, k.status, errorBody{Error: msg, Code: k.code})
		return
	}

	s.log.Error(r.Context(), "request failed", "path", r.URL.Path, "request_id", requestID(r.Context()), "error", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error", Code: "internal_error"})
}

// decodeJSON reads exactly one JSON object from the body, rejecting
// unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty request body", common.ErrValidation)
		}
		return fmt.Errorf("%w: malformed request body: %v", common.ErrValidation, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after request body", common.ErrValidation)
	}
	return nil
}
