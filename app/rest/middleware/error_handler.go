package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "navius/app/utils/errors"
	applog "navius/app/utils/logger"
	"navius/app/utils/validator"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Details   string            `json:"details,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// StatusOf maps a handler error to the HTTP status it renders as
func StatusOf(err error) int {
	var verr *validator.ValidationError
	var herr *echo.HTTPError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case apperrors.IsAppError(err):
		return apperrors.GetHTTPStatusCode(err)
	case errors.As(err, &herr):
		return herr.Code
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler renders errors as ErrorResponse. Causes of server errors are
// logged but never sent to the client.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := render(err)
		body.RequestID = c.Response().Header().Get(echo.HeaderXRequestID)

		if status >= http.StatusInternalServerError {
			reqLogger := applog.WithRequest(logger, body.RequestID, c.Request().Method, c.Request().URL.Path)
			applog.LogError(reqLogger, err, "Request failed", "status", status)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			applog.LogError(logger, writeErr, "Failed to write error response")
		}
	}
}

func render(err error) (int, ErrorResponse) {
	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, ErrorResponse{
			Code:    string(apperrors.ErrCodeValidationFailed),
			Message: "validation failed",
			Details: verr.Error(),
			Errors:  verr.Errors,
		}
	}

	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.StatusCode, ErrorResponse{
			Code:    string(appErr.Code),
			Message: appErr.Message,
			Details: appErr.Details,
		}
	}

	var herr *echo.HTTPError
	if errors.As(err, &herr) {
		return herr.Code, ErrorResponse{
			Code:    codeForStatus(herr.Code),
			Message: fmt.Sprint(herr.Message),
		}
	}

	return http.StatusInternalServerError, ErrorResponse{
		Code:    string(apperrors.ErrCodeInternalError),
		Message: "internal server error",
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(apperrors.ErrCodeBadRequest)
	case http.StatusUnauthorized:
		return string(apperrors.ErrCodeUnauthorized)
	case http.StatusForbidden:
		return string(apperrors.ErrCodeForbidden)
	case http.StatusNotFound:
		return string(apperrors.ErrCodeNotFound)
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusUnsupportedMediaType:
		return "UNSUPPORTED_MEDIA_TYPE"
	case http.StatusTooManyRequests:
		return string(apperrors.ErrCodeRateLimitExceeded)
	case http.StatusServiceUnavailable:
		return string(apperrors.ErrCodeServiceUnavailable)
	case http.StatusGatewayTimeout:
		return string(apperrors.ErrCodeTimeout)
	}
	if status >= http.StatusInternalServerError {
		return string(apperrors.ErrCodeInternalError)
	}
	return http.StatusText(status)
}
