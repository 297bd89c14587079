package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"playlistforge/internal/fetch"
	"playlistforge/internal/m3u"
	"playlistforge/internal/model"
	"playlistforge/internal/overrides"
	"playlistforge/internal/pipeline"
	"playlistforge/internal/policy"
	"playlistforge/internal/rewrite"
)

// APIError is used by the HTTP layer for request validation and a few
// HTTP-specific errors.
type APIError struct {
	Status   int
	AppError model.AppError
	Cause    error
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *APIError) Unwrap() error { return e.Cause }

func apiError(status int, app model.AppError, cause error) error {
	return &APIError{Status: status, AppError: app, Cause: cause}
}

func requestError(code, message, hint string) error {
	return apiError(http.StatusBadRequest, model.AppError{
		Code:    code,
		Message: message,
		Stage:   "validate_request",
		Hint:    hint,
	}, nil)
}

func writeErrorFromErr(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	var ae *APIError
	if errors.As(err, &ae) {
		WriteError(w, ae.Status, ae.AppError)
		return
	}

	var fe *fetch.FetchError
	if errors.As(err, &fe) {
		WriteError(w, fe.Status, fe.AppError)
		return
	}

	// Content and configuration errors are the caller's inputs => 422.
	var me *m3u.ParseError
	if errors.As(err, &me) {
		WriteError(w, http.StatusUnprocessableEntity, me.AppError)
		return
	}

	var pe *policy.ParseError
	if errors.As(err, &pe) {
		WriteError(w, http.StatusUnprocessableEntity, pe.AppError)
		return
	}

	var oe *overrides.ParseError
	if errors.As(err, &oe) {
		WriteError(w, http.StatusUnprocessableEntity, oe.AppError)
		return
	}

	var ce *rewrite.ConfigError
	if errors.As(err, &ce) {
		WriteError(w, http.StatusUnprocessableEntity, ce.AppError)
		return
	}

	var se *pipeline.StageError
	if errors.As(err, &se) {
		WriteError(w, http.StatusInternalServerError, se.AppError)
		return
	}

	// Fallback: internal bug.
	WriteError(w, http.StatusInternalServerError, model.AppError{
		Code:    "INTERNAL_ERROR",
		Message: "internal server error",
		Stage:   "internal",
		Hint:    err.Error(),
	})
}
