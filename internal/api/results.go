package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/soaringjerry/medscore/internal/metrics"
	"github.com/soaringjerry/medscore/internal/models"
	"github.com/soaringjerry/medscore/internal/services"
)

// GET /api/forms/:id/results?since=RFC3339
func (rt *Router) listResults(c echo.Context) error {
	var since time.Time
	if s := c.QueryParam("since"); s != "" {
		t, err := models.ParseDate(s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "since must be a date or RFC3339 timestamp")
		}
		since = t
	}
	ctx := c.Request().Context()
	if _, err := rt.svc.Forms.GetForm(ctx, c.Param("id")); err != nil {
		return httpError(err)
	}
	rs, err := rt.svc.Results.List(ctx, c.Param("id"), since)
	if err != nil {
		return httpError(err)
	}
	out := make([]resultView, 0, len(rs))
	for _, r := range rs {
		out = append(out, viewResult(c, r))
	}
	return c.JSON(http.StatusOK, out)
}

func (rt *Router) getResult(c echo.Context) error {
	r, err := rt.svc.Results.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, viewResult(c, r))
}

// GET /api/forms/:id/analytics?days=30&resolution=day|week|month
func (rt *Router) analytics(c echo.Context) error {
	days := 0
	if s := c.QueryParam("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "days must be a non-negative integer")
		}
		days = n
	}
	res := services.ParseResolution(c.QueryParam("resolution"))
	sum, err := rt.svc.Analytics.Summary(c.Request().Context(), c.Param("id"), days, res)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sum)
}

// GET /api/forms/:id/export?format=long|wide|questions
func (rt *Router) export(c echo.Context) error {
	out, err := rt.svc.Export.ExportCSV(c.Request().Context(), services.ExportParams{
		FormID: c.Param("id"),
		Format: c.QueryParam("format"),
	})
	if err != nil {
		return httpError(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+out.Filename)
	return c.Blob(http.StatusOK, out.ContentType, out.Data)
}

type scoreRequest struct {
	Questions []models.Question `json:"questions"`
	Responses []models.Response `json:"responses"`
}

// POST /api/score scores responses against questions without storing anything.
func (rt *Router) score(c echo.Context) error {
	var req scoreRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(err)
	}
	metrics.ObserveScoreRequest()
	r := services.CalculateAssessmentResult(req.Questions, req.Responses)
	return c.JSON(http.StatusOK, viewResult(c, &r))
}

// POST /api/visibility reports which questions are shown for the given answers.
func (rt *Router) visibility(c echo.Context) error {
	var req scoreRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(err)
	}
	set := services.VisibleSet(req.Questions, models.NewResponseSet(req.Responses))
	visible, hidden := []string{}, []string{}
	for _, q := range req.Questions {
		if set[q.ID] {
			visible = append(visible, q.ID)
		} else {
			hidden = append(hidden, q.ID)
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"visible": visible, "hidden": hidden})
}
