package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/assessment-backend/internal/domain/aggregates"
)

type APIError struct {
	Message    string                        `json:"message"`
	Code       string                        `json:"code,omitempty"`
	Violations []domainagg.CategoryViolation `json:"violations,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message:    msg,
			Code:       code,
			Violations: domainagg.ViolationsOf(err),
		},
	})
}

// RespondDomainError writes err with the status of its aggregate code.
// Storage and internal failures hide their cause from the client.
func RespondDomainError(c *gin.Context, err error) {
	code := domainagg.CodeOf(err)
	if code == "" {
		code = domainagg.CodeInternal
	}
	status := StatusFor(code)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		RespondError(c, status, string(code), errorText(code))
		return
	}
	RespondError(c, status, string(code), err)
}

func StatusFor(code domainagg.ErrorCode) int {
	switch code {
	case domainagg.CodeUnauthorized:
		return http.StatusUnauthorized
	case domainagg.CodeForbidden, domainagg.CodeProcessMismatch:
		return http.StatusForbidden
	case domainagg.CodeNotFound:
		return http.StatusNotFound
	case domainagg.CodeSessionClosed, domainagg.CodeConflict:
		return http.StatusConflict
	case domainagg.CodeQuestionNotAssigned, domainagg.CodeRuleViolation, domainagg.CodeConfigurationMissing:
		return http.StatusUnprocessableEntity
	case domainagg.CodeValidation:
		return http.StatusBadRequest
	case domainagg.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorText string

func (e errorText) Error() string {
	switch domainagg.ErrorCode(e) {
	case domainagg.CodeStorageFailure:
		return "storage failure"
	default:
		return "internal error"
	}
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
