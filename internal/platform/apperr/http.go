package apperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func httpStatus(k Kind) int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// HTTPErrorHandler returns an echo error handler that maps taxonomy errors
// to statuses and hides internal detail from clients outside development.
func HTTPErrorHandler(logger zerolog.Logger, dev bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		msg := "internal error"

		var ae *Error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ae):
			status = httpStatus(ae.Kind)
			msg = ae.Msg
			if ae.Kind == KindInternal {
				logger.Error().Err(ae.Err).Str("path", c.Path()).Msg("internal error")
				if !dev {
					msg = "internal error"
				}
			}
		case errors.As(err, &he):
			status = he.Code
			if s, ok := he.Message.(string); ok {
				msg = s
			} else {
				msg = http.StatusText(he.Code)
			}
		default:
			logger.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
			if dev {
				msg = err.Error()
			}
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, map[string]string{"error": msg})
	}
}
