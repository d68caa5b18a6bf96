package httpapi

import (
	"errors"
	"net/http"

	"carconnect/internal/domain"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Result is the JSON envelope of every response.
// status: "success" for 2xx, "fail" for 4xx, "error" for 5xx
type Result[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Data    T      `json:"data,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

func Ok[T any](data T) Result[T] {
	return Result[T]{Status: StatusSuccess, Message: "ok", Data: data}
}

func Fail(message, detail string) Result[any] {
	return Result[any]{Status: StatusFail, Message: message, Error: detail}
}

func respond[T any](c echo.Context, code int, data T) error {
	return c.JSON(code, Ok(data))
}

// statusFor maps an error kind to its HTTP status and public message
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNoFieldsProvided):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// writeError renders err in the envelope. 5xx bodies carry no error text.
func writeError(c echo.Context, err error) error {
	code, message := statusFor(err)
	log := loggerFrom(c)

	if code >= http.StatusInternalServerError {
		if errors.Is(err, domain.ErrIdentifierRejected) {
			log.Error("Identifier rejected by allow-list", zap.String("path", c.Path()), zap.Error(err))
		} else {
			log.Error("Request failed", zap.String("path", c.Path()), zap.Error(err))
		}
		return c.JSON(code, Result[any]{Status: StatusError, Message: message})
	}
	// credential failures stay undifferentiated
	if code == http.StatusUnauthorized {
		return c.JSON(code, Fail(message, ""))
	}
	return c.JSON(code, Fail(message, err.Error()))
}

// errorHandler renders echo's own errors (unknown route, body limit, bad JSON) in the envelope
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg := http.StatusText(he.Code)
			if s, ok := he.Message.(string); ok && s != "" {
				msg = s
			}
			status := StatusFail
			if he.Code >= http.StatusInternalServerError {
				status = StatusError
			}
			if werr := c.JSON(he.Code, Result[any]{Status: status, Message: msg}); werr != nil {
				logger.Warn("Failed to write error response", zap.Error(werr))
			}
			return
		}
		if werr := writeError(c, err); werr != nil {
			logger.Warn("Failed to write error response", zap.Error(werr))
		}
	}
}
