package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/soaringjerry/medscore/internal/middleware"
	"github.com/soaringjerry/medscore/internal/models"
	"github.com/soaringjerry/medscore/internal/utils"
)

// resultView is a stored result plus its risk level in the request locale.
type resultView struct {
	*models.AssessmentResult
	RiskLabel string `json:"risk_label"`
}

func viewResult(c echo.Context, r *models.AssessmentResult) resultView {
	locale := middleware.LocaleFromContext(c.Request().Context())
	return resultView{AssessmentResult: r, RiskLabel: utils.RiskLabel(locale, string(r.RiskLevel))}
}

func (rt *Router) startSession(c echo.Context) error {
	st, err := rt.svc.Sessions.Start(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, st)
}

func (rt *Router) getSession(c echo.Context) error {
	st, err := rt.svc.Sessions.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, st)
}

// PUT /api/sessions/:id/responses/:qid {value}; a null value clears the answer.
func (rt *Router) answer(c echo.Context) error {
	var req struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.NewDecoder(io.LimitReader(c.Request().Body, 1<<20)).Decode(&req); err != nil {
		return badRequest(err)
	}
	if len(req.Value) == 0 {
		req.Value = json.RawMessage("null")
	}
	st, err := rt.svc.Sessions.Answer(c.Request().Context(), c.Param("id"), c.Param("qid"), req.Value)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (rt *Router) completeSession(c echo.Context) error {
	r, err := rt.svc.Sessions.Complete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, viewResult(c, r))
}
