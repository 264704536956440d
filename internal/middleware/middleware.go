package middleware

import (
	"errors"
	"net/http"

	"github.com/dukerupert/addressattr/internal/domain"
	"github.com/dukerupert/addressattr/internal/telemetry"
	"github.com/labstack/echo/v4"
)

// ============================================================================
// ERROR RESPONSES
// ============================================================================

// ErrorResponse is the JSON body written for failed requests.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// HTTPErrorHandler writes domain errors and echo errors as JSON, logging
// them on the request-scoped logger. Server errors are also reported to
// Sentry when it is enabled.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		status int
		body   ErrorBody
		he     *echo.HTTPError
	)
	if errors.As(err, &he) {
		status = he.Code
		body = ErrorBody{Code: httpStatusToErrorCode(he.Code), Message: http.StatusText(he.Code)}
		if msg, ok := he.Message.(string); ok {
			body.Message = msg
		}
	} else if domain.IsValidationError(err) {
		status = http.StatusBadRequest
		body = ErrorBody{
			Code:    domain.EINVALID,
			Message: "Validation failed",
			Fields:  domain.GetValidationFields(err),
		}
	} else {
		code := domain.ErrorCode(err)
		status = ErrorCodeToHTTPStatus(code)
		body = ErrorBody{
			Code:    code,
			Message: domain.ErrorMessage(err),
		}
	}

	logger := GetLogger(c)
	event := logger.Info()
	if status >= 500 {
		event = logger.Error()
		telemetry.CaptureError(c.Request().Context(), err, map[string]any{
			"method":     c.Request().Method,
			"path":       c.Path(),
			"request_id": GetRequestID(c),
		})
	}
	if op := domain.ErrorOp(err); op != "" {
		event = event.Str("op", op)
	}
	event.Err(err).Str("code", body.Code).Int("status", status).Msg("request failed")

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, ErrorResponse{Error: body})
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest // 400
	case domain.ENOTFOUND:
		return http.StatusNotFound // 404
	case domain.EUNPROCESSABLE:
		return http.StatusUnprocessableEntity // 422
	default:
		return http.StatusInternalServerError // 500
	}
}

func httpStatusToErrorCode(status int) string {
	switch {
	case status == http.StatusNotFound:
		return domain.ENOTFOUND
	case status == http.StatusUnprocessableEntity:
		return domain.EUNPROCESSABLE
	case status >= 400 && status < 500:
		return domain.EINVALID
	default:
		return domain.EINTERNAL
	}
}
