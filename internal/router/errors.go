package router

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"opticart/internal/errors"
	"opticart/internal/handler"
)

// ErrorHandler renders every error as the error envelope. Domain errors are
// mapped to their status; echo's own errors keep theirs.
func ErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if stderrors.As(err, &he) {
			err = fromEcho(he)
		}

		mapped := errors.MapErrorToHTTP(err)
		if mapped.StatusCode >= http.StatusInternalServerError {
			log.ErrorContext(c.Request().Context(), "request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"err", err,
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(mapped.StatusCode)
		} else {
			err = handler.RespondError(c, mapped)
		}
		if err != nil {
			log.ErrorContext(c.Request().Context(), "write error response", "err", err)
		}
	}
}

func fromEcho(he *echo.HTTPError) *errors.HTTPError {
	message := http.StatusText(he.Code)
	if he.Message != nil {
		if m := fmt.Sprint(he.Message); m != "" {
			message = m
		}
	}
	code := strings.ToUpper(strings.ReplaceAll(http.StatusText(he.Code), " ", "_"))
	if code == "" {
		code = "HTTP_ERROR"
	}
	return errors.NewHTTPError(he.Code, message, code)
}
