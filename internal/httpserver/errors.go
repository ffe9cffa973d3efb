package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
)

const internalError = "internal server error"

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail logs a service error under event and converts it to an HTTP error
// carrying only the client-safe message. 5xx responses always carry the
// generic message; the service reason stays in the log and the cause.
func fail(l *slog.Logger, event string, err error) error {
	code := statusFor(err)
	reason := internalError
	var se *service.Error
	if errors.As(err, &se) {
		reason = se.Msg
	}

	if code >= 500 {
		l.Error(event, "status", code, "reason", reason, "error", err)
		return echo.NewHTTPError(code, internalError).SetInternal(err)
	}
	l.Warn(event, "status", code, "reason", reason)
	return echo.NewHTTPError(code, reason).SetInternal(err)
}

func badRequest(l *slog.Logger, event, reason string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}

func parseID(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return uint(v), nil
}

// ErrorHandler renders every error as {"error": msg}. Outside production the
// wrapped cause is added as "detail".
func ErrorHandler(production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := internalError
		var cause error = err

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if s, ok := he.Message.(string); ok {
				msg = s
			} else if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
			cause = he.Internal
		}

		body := echo.Map{"error": msg}
		if !production && cause != nil {
			body["detail"] = cause.Error()
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			c.Logger().Error(err)
		}
	}
}
