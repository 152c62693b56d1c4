// middleware/error_handler.go
package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/HSouheill/carrental_backend/apperrors"
	"github.com/HSouheill/carrental_backend/models"
	"github.com/HSouheill/carrental_backend/security"
)

// ErrorHandler renders every failure as {ok:false, error}. Internal details
// are logged and never sent.
func ErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, message := classify(err)
		if status >= http.StatusInternalServerError {
			logger.Error("Request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.Any("headers", security.SanitizeHeaders(c.Request().Header)),
				zap.Error(err),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, models.Response{OK: false, Error: message})
		}
		if err != nil {
			logger.Warn("Failed to write error response", zap.Error(err))
		}
	}
}

func classify(err error) (int, string) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr.Kind.Status(), appErr.Message
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Code >= http.StatusInternalServerError {
			return httpErr.Code, http.StatusText(httpErr.Code)
		}
		if msg, ok := httpErr.Message.(string); ok {
			return httpErr.Code, msg
		}
		return httpErr.Code, fmt.Sprint(httpErr.Message)
	}

	return http.StatusInternalServerError, "Internal server error"
}
