package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/soaringjerry/medscore/internal/utils"
)

type ctxKey int

const localeKey ctxKey = 1

// Locale resolves the locale from the lang query param or Accept-Language and
// stores it on both the echo context and the request context.
func Locale() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			locale := utils.DetermineLocale(c.QueryParam("lang"), req.Header.Get("Accept-Language"), utils.Locales, "en")
			c.Set("locale", locale)
			c.SetRequest(req.WithContext(context.WithValue(req.Context(), localeKey, locale)))
			c.Response().Header().Set("Content-Language", locale)
			return next(c)
		}
	}
}

// LocaleFromContext retrieves the locale stored by Locale.
func LocaleFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(localeKey).(string); ok {
		return s
	}
	return "en"
}
