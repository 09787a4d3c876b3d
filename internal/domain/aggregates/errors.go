package aggregates

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/assessment-backend/internal/domain/assessment"
)

// ErrorCode standardizes aggregate failure semantics across the exam engine.
type ErrorCode string

const (
	CodeUnauthorized         ErrorCode = "unauthorized"
	CodeForbidden            ErrorCode = "forbidden"
	CodeProcessMismatch      ErrorCode = "process_mismatch"
	CodeNotFound             ErrorCode = "not_found"
	CodeConfigurationMissing ErrorCode = "configuration_missing"
	CodeSessionClosed        ErrorCode = "session_closed"
	CodeQuestionNotAssigned  ErrorCode = "question_not_assigned"
	CodeRuleViolation        ErrorCode = "rule_violation"
	CodeValidation           ErrorCode = "validation"
	CodeConflict             ErrorCode = "conflict"
	CodeRetryable            ErrorCode = "retryable"
	CodeStorageFailure       ErrorCode = "storage_failure"
	CodeInternal             ErrorCode = "internal"
)

// Error is the canonical aggregate error wrapper.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds an aggregate error with explicit code + operation.
func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap annotates an existing error with aggregate error semantics.
// Errors that already carry a code keep it.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	if existing := CodeOf(err); existing != "" {
		return err
	}
	return NewError(code, op, err.Error(), err)
}

// IsCode checks whether err (or wrapped err) carries the given aggregate code.
func IsCode(err error, code ErrorCode) bool {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return false
	}
	return aggErr.Code == code
}

// CodeOf extracts the aggregate error code when available.
func CodeOf(err error) ErrorCode {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return ""
	}
	return aggErr.Code
}

// CategoryViolation describes one unmet completion constraint.
type CategoryViolation struct {
	Category assessment.CategoryKey `json:"category"`
	Answered int                    `json:"answered"`
	Min      int                    `json:"min"`
	Required *int                   `json:"required,omitempty"`
}

func (v CategoryViolation) String() string {
	if v.Required != nil {
		return fmt.Sprintf("%s: answered %d, required exactly %d", v.Category, v.Answered, *v.Required)
	}
	return fmt.Sprintf("%s: answered %d, required at least %d", v.Category, v.Answered, v.Min)
}

// ViolationError carries every violated category of a completion attempt.
type ViolationError struct {
	Violations []CategoryViolation
}

func (e *ViolationError) Error() string {
	if e == nil || len(e.Violations) == 0 {
		return "no violations"
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return "rule violations: " + strings.Join(parts, "; ")
}

// NewRuleViolation wraps violations into a CodeRuleViolation aggregate error.
func NewRuleViolation(op string, violations []CategoryViolation) error {
	cause := &ViolationError{Violations: violations}
	return NewError(CodeRuleViolation, op, cause.Error(), cause)
}

// ViolationsOf returns the violation list carried by err, if any.
func ViolationsOf(err error) []CategoryViolation {
	var ve *ViolationError
	if !errors.As(err, &ve) || ve == nil {
		return nil
	}
	return ve.Violations
}
