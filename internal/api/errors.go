package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/soaringjerry/medscore/internal/services"
)

// httpError maps service errors onto HTTP status codes. Anything that is not
// a ServiceError is a 500 and its message is not exposed.
func httpError(err error) error {
	se, ok := services.AsServiceError(err)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}
	switch se.Code {
	case services.ErrorInvalid:
		if len(se.Details) > 0 {
			return echo.NewHTTPError(http.StatusBadRequest, map[string]any{
				"message": se.Message,
				"details": se.Details,
			})
		}
		return echo.NewHTTPError(http.StatusBadRequest, se.Message)
	case services.ErrorForbidden:
		return echo.NewHTTPError(http.StatusForbidden, se.Message)
	case services.ErrorNotFound:
		return echo.NewHTTPError(http.StatusNotFound, se.Message)
	case services.ErrorConflict:
		return echo.NewHTTPError(http.StatusConflict, se.Message)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, se.Message)
}

func badRequest(err error) error {
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}
