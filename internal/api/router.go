package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/soaringjerry/medscore/internal/metrics"
	"github.com/soaringjerry/medscore/internal/middleware"
	"github.com/soaringjerry/medscore/internal/services"
	"github.com/soaringjerry/medscore/internal/utils"
)

// Services groups what the handlers call into.
type Services struct {
	Forms     *services.FormService
	Sessions  *services.SessionService
	Results   *services.ResultService
	Analytics *services.AnalyticsService
	Export    *services.ExportService
}

// NewServices builds every service on a single store.
func NewServices(store services.Store, policy services.HiddenPolicy) Services {
	return Services{
		Forms:     services.NewFormService(store),
		Sessions:  services.NewSessionService(store, policy),
		Results:   services.NewResultService(store),
		Analytics: services.NewAnalyticsService(store),
		Export:    services.NewExportService(store),
	}
}

type Options struct {
	Commit    string
	BuildTime string
	// StaticDir, when set, is served at / for the bundled frontend.
	StaticDir string
}

type Router struct {
	svc  Services
	opts Options
}

func NewRouter(svc Services, opts Options) *Router {
	return &Router{svc: svc, opts: opts}
}

func (rt *Router) Register(e *echo.Echo) {
	e.GET("/health", rt.health)
	e.GET("/version", rt.version)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	api := e.Group("/api")
	api.POST("/score", rt.score)
	api.POST("/visibility", rt.visibility)
	api.GET("/operators/:type", rt.operators)

	api.GET("/forms", rt.listForms)
	api.POST("/forms", rt.createForm)
	api.GET("/forms/:id", rt.getForm)
	api.PUT("/forms/:id", rt.updateForm)
	api.DELETE("/forms/:id", rt.deleteForm)
	api.POST("/forms/:id/publish", rt.publishForm)
	api.POST("/forms/:id/archive", rt.archiveForm)
	api.GET("/forms/:id/validate", rt.validateForm)
	api.PUT("/forms/:id/order", rt.reorderQuestions)
	api.POST("/forms/:id/questions", rt.addQuestion)
	api.PUT("/forms/:id/questions/:qid", rt.updateQuestion)
	api.DELETE("/forms/:id/questions/:qid", rt.deleteQuestion)
	api.POST("/forms/:id/questions/:qid/duplicate", rt.duplicateQuestion)
	api.PUT("/forms/:id/questions/:qid/conditions", rt.setConditions)
	api.GET("/forms/:id/questions/:qid/dependents", rt.dependents)

	api.POST("/forms/:id/sessions", rt.startSession)
	api.GET("/sessions/:id", rt.getSession)
	api.PUT("/sessions/:id/responses/:qid", rt.answer)
	api.POST("/sessions/:id/complete", rt.completeSession)

	api.GET("/forms/:id/results", rt.listResults)
	api.GET("/results/:id", rt.getResult)
	api.GET("/forms/:id/analytics", rt.analytics)
	api.GET("/forms/:id/export", rt.export)

	if rt.opts.StaticDir != "" {
		e.Static("/", rt.opts.StaticDir)
	}
}

func (rt *Router) health(c echo.Context) error {
	locale := middleware.LocaleFromContext(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]any{
		"ok":         true,
		"name":       "medscore",
		"locale":     locale,
		"msg":        utils.T(locale, "health.ok"),
		"commit":     rt.opts.Commit,
		"build_time": rt.opts.BuildTime,
	})
}

func (rt *Router) version(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"commit":     rt.opts.Commit,
		"build_time": rt.opts.BuildTime,
	})
}
