package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/soaringjerry/medscore/internal/models"
	"github.com/soaringjerry/medscore/internal/services"
)

func (rt *Router) listForms(c echo.Context) error {
	forms, err := rt.svc.Forms.ListForms(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	if forms == nil {
		forms = []*models.Form{}
	}
	return c.JSON(http.StatusOK, forms)
}

func (rt *Router) createForm(c echo.Context) error {
	var f models.Form
	if err := c.Bind(&f); err != nil {
		return badRequest(err)
	}
	created, err := rt.svc.Forms.CreateForm(c.Request().Context(), &f)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (rt *Router) getForm(c echo.Context) error {
	f, err := rt.svc.Forms.GetForm(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, f)
}

// PUT /api/forms/:id {title, description}
func (rt *Router) updateForm(c echo.Context) error {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(err)
	}
	f, err := rt.svc.Forms.UpdateDetails(c.Request().Context(), c.Param("id"), req.Title, req.Description)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, f)
}

func (rt *Router) deleteForm(c echo.Context) error {
	if err := rt.svc.Forms.DeleteForm(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (rt *Router) publishForm(c echo.Context) error {
	f, err := rt.svc.Forms.Publish(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, f)
}

func (rt *Router) archiveForm(c echo.Context) error {
	f, err := rt.svc.Forms.Archive(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, f)
}

func (rt *Router) validateForm(c echo.Context) error {
	errs, err := rt.svc.Forms.Validate(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	if errs == nil {
		errs = models.ValidationErrors{}
	}
	return c.JSON(http.StatusOK, map[string]any{"valid": len(errs) == 0, "errors": errs})
}

// PUT /api/forms/:id/order accepts either {order: [ids...]} or {from, to}.
func (rt *Router) reorderQuestions(c echo.Context) error {
	var req struct {
		Order []string `json:"order"`
		From  *int     `json:"from"`
		To    *int     `json:"to"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(err)
	}
	ctx := c.Request().Context()
	var (
		f   *models.Form
		err error
	)
	switch {
	case len(req.Order) > 0:
		f, err = rt.svc.Forms.ReorderQuestions(ctx, c.Param("id"), req.Order)
	case req.From != nil && req.To != nil:
		f, err = rt.svc.Forms.MoveQuestion(ctx, c.Param("id"), *req.From, *req.To)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "order or from/to required")
	}
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, f)
}

// POST /api/forms/:id/questions takes a full question. With ?template=<type>
// the body is ignored and the default question of that type is added.
func (rt *Router) addQuestion(c echo.Context) error {
	var q models.Question
	if tpl := c.QueryParam("template"); tpl != "" {
		t := models.QuestionType(tpl)
		if !t.Known() {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown question type")
		}
		q = models.NewQuestion(t)
	} else if err := c.Bind(&q); err != nil {
		return badRequest(err)
	}
	added, err := rt.svc.Forms.AddQuestion(c.Request().Context(), c.Param("id"), q)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, added)
}

func (rt *Router) updateQuestion(c echo.Context) error {
	var q models.Question
	if err := c.Bind(&q); err != nil {
		return badRequest(err)
	}
	q.ID = c.Param("qid")
	updated, err := rt.svc.Forms.UpdateQuestion(c.Request().Context(), c.Param("id"), q)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (rt *Router) deleteQuestion(c echo.Context) error {
	if err := rt.svc.Forms.DeleteQuestion(c.Request().Context(), c.Param("id"), c.Param("qid")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (rt *Router) duplicateQuestion(c echo.Context) error {
	dup, err := rt.svc.Forms.DuplicateQuestion(c.Request().Context(), c.Param("id"), c.Param("qid"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, dup)
}

// PUT /api/forms/:id/questions/:qid/conditions; a null body clears the rule.
func (rt *Router) setConditions(c echo.Context) error {
	var logic *models.ConditionalLogic
	if err := json.NewDecoder(c.Request().Body).Decode(&logic); err != nil && !errors.Is(err, io.EOF) {
		return badRequest(err)
	}
	q, err := rt.svc.Forms.SetConditionalLogic(c.Request().Context(), c.Param("id"), c.Param("qid"), logic)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, q)
}

func (rt *Router) dependents(c echo.Context) error {
	f, err := rt.svc.Forms.GetForm(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	qid := c.Param("qid")
	if q, _ := f.Question(qid); q == nil {
		return httpError(services.NewNotFoundError("question not found"))
	}
	ids := services.DependentsOf(f.Questions, qid)
	if ids == nil {
		ids = []string{}
	}
	return c.JSON(http.StatusOK, map[string]any{"question_id": qid, "dependents": ids})
}

// GET /api/operators/:type lists the condition operators a parent of that type supports.
func (rt *Router) operators(c echo.Context) error {
	t := models.QuestionType(c.Param("type"))
	if !t.Known() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown question type")
	}
	ops := services.OperatorsFor(t)
	if ops == nil {
		ops = []models.Operator{}
	}
	return c.JSON(http.StatusOK, map[string]any{"type": t, "operators": ops})
}
