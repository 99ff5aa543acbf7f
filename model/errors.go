package model

import (
	"errors"
	"fmt"
)

// Standard error codes.
const (
	ErrBadRequest      = "BAD_REQUEST"
	ErrUnauthorized    = "UNAUTHORIZED"
	ErrForbidden       = "FORBIDDEN"
	ErrNotFound        = "NOT_FOUND"
	ErrConflict        = "CONFLICT"
	ErrValidationError = "VALIDATION_ERROR"
	ErrInternalError   = "INTERNAL_ERROR"
)

// Workflow-specific error codes. Callers branch on these to distinguish the
// failure kind; the engine itself never logs, retries, or suppresses.
const (
	ErrStateNotFound     = "STATE_NOT_FOUND"
	ErrStageNotFound     = "STAGE_NOT_FOUND"
	ErrRoleNotFound      = "ROLE_NOT_FOUND"
	ErrActionNotFound    = "ACTION_NOT_FOUND"
	ErrActionForbidden   = "ACTION_FORBIDDEN"
	ErrInvalidDefinition = "INVALID_DEFINITION"
)

// ErrorEnvelope is the standard error value produced across the engine and
// the HTTP surface. It implements the error interface.
type ErrorEnvelope struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *ErrorEnvelope) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldError describes a field-level validation error.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CodeOf returns the envelope code of err, or INTERNAL_ERROR when err is not
// an *ErrorEnvelope.
func CodeOf(err error) string {
	var ee *ErrorEnvelope
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ErrInternalError
}

// NewStateNotFoundError reports that a state id does not exist in a definition.
func NewStateNotFoundError(stateID string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrStateNotFound, Message: fmt.Sprintf("state %q not found", stateID)}
}

// NewStageNotFoundError reports that a stage id does not exist in a definition.
func NewStageNotFoundError(stageID string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrStageNotFound, Message: fmt.Sprintf("stage %q not found", stageID)}
}

// NewRoleNotFoundError reports that a role id does not exist in a definition.
func NewRoleNotFoundError(roleID string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrRoleNotFound, Message: fmt.Sprintf("role %q not found", roleID)}
}

// NewActionNotFoundError reports that an action id does not exist on the
// current state.
func NewActionNotFoundError(actionID, stateID string) *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrActionNotFound,
		Message: fmt.Sprintf("action %q not found on state %q", actionID, stateID),
	}
}

// NewActionForbiddenError reports that an actor holds none of the roles an
// action requires.
func NewActionForbiddenError(actorID, actionID string) *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrActionForbidden,
		Message: fmt.Sprintf("actor %q is not allowed to perform action %q", actorID, actionID),
	}
}

// NewInvalidDefinitionError reports a definition whose graph references
// entries that do not exist.
func NewInvalidDefinitionError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrInvalidDefinition, Message: msg}
}

// NewBadRequestError returns a BAD_REQUEST error.
func NewBadRequestError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrBadRequest, Message: msg}
}

// NewUnauthorizedError returns an UNAUTHORIZED error.
func NewUnauthorizedError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrUnauthorized, Message: msg}
}

// NewForbiddenError returns a FORBIDDEN error.
func NewForbiddenError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrForbidden, Message: msg}
}

// NewNotFoundError returns a NOT_FOUND error.
func NewNotFoundError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrNotFound, Message: msg}
}

// NewConflictError returns a CONFLICT error.
func NewConflictError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrConflict, Message: msg}
}

// NewValidationError returns a VALIDATION_ERROR with field-level details.
func NewValidationError(details []FieldError) *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrValidationError,
		Message: "One or more fields are invalid",
		Details: details,
	}
}

// NewInternalError returns an INTERNAL_ERROR.
func NewInternalError() *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrInternalError,
		Message: "An unexpected error occurred",
	}
}
