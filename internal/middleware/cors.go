package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CORS answers preflight requests and sets the allow headers. An empty origin
// list allows any origin without credentials.
func CORS(origins []string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			origin := c.Request().Header.Get(echo.HeaderOrigin)
			h.Add(echo.HeaderVary, echo.HeaderOrigin)
			if len(allowed) == 0 {
				h.Set(echo.HeaderAccessControlAllowOrigin, "*")
			} else if _, ok := allowed[origin]; ok {
				h.Set(echo.HeaderAccessControlAllowOrigin, origin)
			} else if origin != "" && c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusForbidden)
			}
			h.Set(echo.HeaderAccessControlAllowMethods, "GET,POST,PUT,PATCH,DELETE,OPTIONS")
			h.Set(echo.HeaderAccessControlAllowHeaders, "Content-Type, Accept-Language, X-Request-ID")
			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusNoContent)
			}
			return next(c)
		}
	}
}
