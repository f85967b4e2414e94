package kit

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/kylinpoet/song-for-guoxi/internal/logx"
)

var kitLogger = logx.GetScope("httpx")

// APIError is a structured application error with code and message.
type APIError struct {
	HTTPStatus int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"error"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string { return e.Message }

func NewAPIError(httpStatus int, code, msg string, details any) *APIError {
	return &APIError{HTTPStatus: httpStatus, Code: code, Message: msg, Details: details}
}

// Common helpers
func BadRequest(msg string, details any) error {
	return NewAPIError(http.StatusBadRequest, "E_INVALID_PARAM", msg, details)
}
func Forbidden(msg string) error { return NewAPIError(http.StatusForbidden, "E_FORBIDDEN", msg, nil) }
func NotFound(msg string) error  { return NewAPIError(http.StatusNotFound, "E_NOT_FOUND", msg, nil) }

// InternalError echoes the underlying message to the client.
func InternalError(err error) error {
	return NewAPIError(http.StatusInternalServerError, "E_INTERNAL", err.Error(), nil)
}

// ErrorHandler renders APIError and fiber.Error values as JSON failures.
// Anything else, including recovered panics, becomes a plain-text 500.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var ae *APIError
		if errors.As(err, &ae) {
			if ae.HTTPStatus >= http.StatusInternalServerError {
				kitLogger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
			}
			body := fiber.Map{
				"success":    false,
				"code":       ae.Code,
				"error":      ae.Message,
				"request_id": RequestID(c),
			}
			if ae.Details != nil {
				body["details"] = ae.Details
			}
			return c.Status(ae.HTTPStatus).JSON(body)
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return Fail(c, fe.Code, httpStatusToCode(fe.Code), fe.Message)
		}

		kitLogger.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.Status(http.StatusInternalServerError).SendString("Error: " + err.Error())
	}
}

func httpStatusToCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "E_INVALID_PARAM"
	case http.StatusNotFound:
		return "E_NOT_FOUND"
	case http.StatusUnauthorized:
		return "E_UNAUTHORIZED"
	case http.StatusForbidden:
		return "E_FORBIDDEN"
	case http.StatusRequestEntityTooLarge:
		return "E_TOO_LARGE"
	default:
		if status >= 500 {
			return "E_INTERNAL"
		}
		return "E_UNKNOWN"
	}
}
