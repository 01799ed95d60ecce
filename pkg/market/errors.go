package market

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is the machine-readable classification carried by every typed
// error in the API core. Codes are stable; agents branch on them.
type ErrorCode string

const (
	CodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	CodeNotFound        ErrorCode = "RESOURCE_NOT_FOUND"
	CodeValidation      ErrorCode = "VALIDATION_ERROR"
	CodeInvalidPatch    ErrorCode = "INVALID_PATCH"
	CodeConflict        ErrorCode = "CONFLICT"
	CodeSeedFailure     ErrorCode = "SEED_FAILURE"
	CodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// CodedError is implemented by errors that carry an ErrorCode.
type CodedError interface {
	error
	Code() ErrorCode
}

// StatusCodeError is implemented by errors that map to an HTTP status.
type StatusCodeError interface {
	error
	StatusCode() int
}

// HintError is implemented by errors that carry a remediation hint.
type HintError interface {
	error
	Hint() string
}

// SessionNotFoundError indicates an unknown or expired session id.
type SessionNotFoundError struct {
	ID string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session '%s' not found", e.ID)
}

func (e *SessionNotFoundError) Code() ErrorCode { return CodeSessionNotFound }

func (e *SessionNotFoundError) StatusCode() int { return http.StatusNotFound }

func (e *SessionNotFoundError) Hint() string {
	return "Create a session with POST /sessions and pass its id in the X-Session-ID header."
}

// NotFoundError indicates a missing row: a listing, seller, or flow that the
// operation referenced but the store does not hold.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Resource, e.ID)
}

func (e *NotFoundError) Code() ErrorCode { return CodeNotFound }

func (e *NotFoundError) StatusCode() int { return http.StatusNotFound }

func (e *NotFoundError) Hint() string {
	return fmt.Sprintf("Check that the %s id is correct, or reset the session to restore the seed data.", e.Resource)
}

// ValidationError indicates malformed input: a bad field value, an unknown
// sort key, an out-of-range page size, or a syntactically invalid patch.
type ValidationError struct {
	Message string
	Field   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Code() ErrorCode { return CodeValidation }

func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

// InvalidPatchError indicates a well-formed patch operation that cannot be
// applied to the current document, e.g. a remove on a path that does not
// exist. The whole patch is rejected; no partial application.
type InvalidPatchError struct {
	Op     string
	Path   string
	Reason string
}

func (e *InvalidPatchError) Error() string {
	return fmt.Sprintf("cannot apply %s at '%s': %s", e.Op, e.Path, e.Reason)
}

func (e *InvalidPatchError) Code() ErrorCode { return CodeInvalidPatch }

func (e *InvalidPatchError) StatusCode() int { return http.StatusUnprocessableEntity }

func (e *InvalidPatchError) Hint() string {
	return "Patches apply atomically. Fetch the listing to inspect its current attribute paths."
}

// ConflictError indicates a uniqueness violation, e.g. creating a listing
// whose (sellerId, sku) already exists without requesting replacement.
type ConflictError struct {
	Resource string
	ID       string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s '%s' already exists", e.Resource, e.ID)
}

func (e *ConflictError) Code() ErrorCode { return CodeConflict }

func (e *ConflictError) StatusCode() int { return http.StatusConflict }

func (e *ConflictError) Hint() string {
	return "Use a full replace (PUT) to overwrite the existing resource."
}

// SeedError indicates a reset or reseed step failure. The report attached to
// the reset response names the failing step; this error wraps its cause.
type SeedError struct {
	Step string
	Err  error
}

func (e *SeedError) Error() string {
	return fmt.Sprintf("seed step '%s' failed: %v", e.Step, e.Err)
}

func (e *SeedError) Unwrap() error { return e.Err }

func (e *SeedError) Code() ErrorCode { return CodeSeedFailure }

func (e *SeedError) StatusCode() int { return http.StatusInternalServerError }

// GetErrorCode returns the ErrorCode carried by err, or CodeInternal when
// err carries none.
func GetErrorCode(err error) ErrorCode {
	var coded CodedError
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return CodeInternal
}

// ErrorResponse is the wire form of an error. StatusCode is transport
// metadata and stays out of the body.
type ErrorResponse struct {
	Error      string    `json:"error"`
	Code       ErrorCode `json:"code"`
	Resource   string    `json:"resource,omitempty"`
	ID         string    `json:"id,omitempty"`
	Field      string    `json:"field,omitempty"`
	Hint       string    `json:"hint,omitempty"`
	StatusCode int       `json:"-"`
}

// ToErrorResponse converts any error to its wire form. Typed errors keep
// their code, status, and hint; everything else becomes an internal error.
func ToErrorResponse(err error) *ErrorResponse {
	resp := &ErrorResponse{
		Error:      err.Error(),
		Code:       GetErrorCode(err),
		StatusCode: http.StatusInternalServerError,
	}

	var sce StatusCodeError
	if errors.As(err, &sce) {
		resp.StatusCode = sce.StatusCode()
	}
	var he HintError
	if errors.As(err, &he) {
		resp.Hint = he.Hint()
	}

	var nf *NotFoundError
	var cf *ConflictError
	var ve *ValidationError
	var sn *SessionNotFoundError
	switch {
	case errors.As(err, &nf):
		resp.Resource = nf.Resource
		resp.ID = nf.ID
	case errors.As(err, &cf):
		resp.Resource = cf.Resource
		resp.ID = cf.ID
	case errors.As(err, &ve):
		resp.Field = ve.Field
	case errors.As(err, &sn):
		resp.Resource = "sessions"
		resp.ID = sn.ID
	}
	return resp
}
