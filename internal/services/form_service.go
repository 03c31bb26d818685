package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soaringjerry/medscore/internal/models"
)

// FormService is the authoring side: it owns form definitions and keeps them
// valid enough to be published.
type FormService struct {
	store FormStore
	now   func() time.Time
}

func NewFormService(store FormStore) *FormService {
	return &FormService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func shortID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

func (s *FormService) CreateForm(ctx context.Context, f *models.Form) (*models.Form, error) {
	if f == nil {
		return nil, NewInvalidError("form required")
	}
	if strings.TrimSpace(f.Title) == "" {
		return nil, NewInvalidError("title required")
	}
	if f.ID == "" {
		f.ID = shortID(8)
	} else if existing, err := s.store.GetForm(ctx, f.ID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, NewConflictError("form already exists")
	}
	for i := range f.Questions {
		if f.Questions[i].ID == "" {
			f.Questions[i].ID = shortID(8)
		}
	}
	if errs := validateDraft(f); len(errs) > 0 {
		return nil, newValidationError("invalid form", errs)
	}
	now := s.now()
	f.CreatedAt, f.UpdatedAt = now, now
	f.PublishedAt = nil
	if f.Status == "" || f.Status == models.FormPublished {
		f.Status = models.FormDraft
	}
	if err := s.store.InsertForm(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// ImportForm stores a catalog form as-is, publishing it when it is valid.
// An existing form with the same id is replaced.
func (s *FormService) ImportForm(ctx context.Context, f *models.Form) (*models.Form, error) {
	if errs := models.ValidateForm(f); len(errs) > 0 {
		return nil, newValidationError("invalid form "+f.ID, errs)
	}
	now := s.now()
	f.CreatedAt, f.UpdatedAt = now, now
	f.Status = models.FormPublished
	f.PublishedAt = &now
	existing, err := s.store.GetForm(ctx, f.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		f.CreatedAt = existing.CreatedAt
		return f, s.store.UpdateForm(ctx, f)
	}
	return f, s.store.InsertForm(ctx, f)
}

func (s *FormService) GetForm(ctx context.Context, id string) (*models.Form, error) {
	f, err := s.store.GetForm(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, NewNotFoundError("form not found")
	}
	return f, nil
}

func (s *FormService) ListForms(ctx context.Context) ([]*models.Form, error) {
	return s.store.ListForms(ctx)
}

func (s *FormService) DeleteForm(ctx context.Context, id string) error {
	if _, err := s.GetForm(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteForm(ctx, id)
}

// UpdateDetails changes title and description only.
func (s *FormService) UpdateDetails(ctx context.Context, id, title, description string) (*models.Form, error) {
	if strings.TrimSpace(title) == "" {
		return nil, NewInvalidError("title required")
	}
	return s.mutate(ctx, id, func(f *models.Form) error {
		f.Title = title
		f.Description = description
		return nil
	})
}

func (s *FormService) AddQuestion(ctx context.Context, formID string, q models.Question) (*models.Question, error) {
	if q.ID == "" {
		q.ID = shortID(8)
	}
	var added models.Question
	_, err := s.mutate(ctx, formID, func(f *models.Form) error {
		if existing, _ := f.Question(q.ID); existing != nil {
			return NewConflictError("question already exists")
		}
		f.Questions = append(f.Questions, q)
		added = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

func (s *FormService) UpdateQuestion(ctx context.Context, formID string, q models.Question) (*models.Question, error) {
	var updated models.Question
	_, err := s.mutate(ctx, formID, func(f *models.Form) error {
		existing, _ := f.Question(q.ID)
		if existing == nil {
			return NewNotFoundError("question not found")
		}
		*existing = q
		updated = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteQuestion removes the question and every condition that referenced it.
func (s *FormService) DeleteQuestion(ctx context.Context, formID, questionID string) error {
	_, err := s.mutate(ctx, formID, func(f *models.Form) error {
		_, idx := f.Question(questionID)
		if idx < 0 {
			return NewNotFoundError("question not found")
		}
		f.Questions = append(f.Questions[:idx], f.Questions[idx+1:]...)
		for i := range f.Questions {
			cl := f.Questions[i].ConditionalLogic
			if cl == nil {
				continue
			}
			kept := cl.Conditions[:0]
			for _, c := range cl.Conditions {
				if c.QuestionID != questionID {
					kept = append(kept, c)
				}
			}
			cl.Conditions = kept
		}
		return nil
	})
	return err
}

// DuplicateQuestion appends a copy of the question under a fresh id.
func (s *FormService) DuplicateQuestion(ctx context.Context, formID, questionID string) (*models.Question, error) {
	var dup models.Question
	_, err := s.mutate(ctx, formID, func(f *models.Form) error {
		src, _ := f.Question(questionID)
		if src == nil {
			return NewNotFoundError("question not found")
		}
		dup = src.Clone()
		dup.ID = shortID(8)
		dup.Text = src.Text + " (Copy)"
		f.Questions = append(f.Questions, dup)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dup, nil
}

// MoveQuestion moves the question at index from to index to.
func (s *FormService) MoveQuestion(ctx context.Context, formID string, from, to int) (*models.Form, error) {
	return s.mutate(ctx, formID, func(f *models.Form) error {
		n := len(f.Questions)
		if from < 0 || from >= n || to < 0 || to >= n {
			return NewInvalidError("index out of range")
		}
		q := f.Questions[from]
		f.Questions = append(f.Questions[:from], f.Questions[from+1:]...)
		f.Questions = append(f.Questions[:to], append([]models.Question{q}, f.Questions[to:]...)...)
		return nil
	})
}

// ReorderQuestions applies a full ordering of question ids.
func (s *FormService) ReorderQuestions(ctx context.Context, formID string, order []string) (*models.Form, error) {
	if len(order) == 0 {
		return nil, NewInvalidError("order required")
	}
	return s.mutate(ctx, formID, func(f *models.Form) error {
		if len(order) != len(f.Questions) {
			return NewInvalidError("order must list every question exactly once")
		}
		reordered := make([]models.Question, 0, len(order))
		seen := map[string]struct{}{}
		for _, id := range order {
			q, _ := f.Question(id)
			if q == nil {
				return NewInvalidError("unknown question " + id)
			}
			if _, dup := seen[id]; dup {
				return NewInvalidError("duplicate question " + id)
			}
			seen[id] = struct{}{}
			reordered = append(reordered, *q)
		}
		f.Questions = reordered
		return nil
	})
}

// SetConditionalLogic replaces the visibility rule of a question.
func (s *FormService) SetConditionalLogic(ctx context.Context, formID, questionID string, logic *models.ConditionalLogic) (*models.Question, error) {
	var updated models.Question
	_, err := s.mutate(ctx, formID, func(f *models.Form) error {
		q, _ := f.Question(questionID)
		if q == nil {
			return NewNotFoundError("question not found")
		}
		q.ConditionalLogic = logic
		if cycle := models.FindCycle(f.Questions); len(cycle) > 0 {
			return NewInvalidError("dependency cycle: " + strings.Join(cycle, " -> "))
		}
		updated = *q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Validate runs the publish-time checks without changing the form.
func (s *FormService) Validate(ctx context.Context, id string) (models.ValidationErrors, error) {
	f, err := s.GetForm(ctx, id)
	if err != nil {
		return nil, err
	}
	return models.ValidateForm(f), nil
}

func (s *FormService) Publish(ctx context.Context, id string) (*models.Form, error) {
	f, err := s.GetForm(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.Status == models.FormArchived {
		return nil, NewConflictError("archived forms cannot be published")
	}
	if errs := models.ValidateForm(f); len(errs) > 0 {
		return nil, newValidationError("form cannot be published", errs)
	}
	now := s.now()
	f.Status = models.FormPublished
	f.PublishedAt = &now
	f.UpdatedAt = now
	if err := s.store.UpdateForm(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *FormService) Archive(ctx context.Context, id string) (*models.Form, error) {
	f, err := s.GetForm(ctx, id)
	if err != nil {
		return nil, err
	}
	f.Status = models.FormArchived
	f.UpdatedAt = s.now()
	if err := s.store.UpdateForm(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// mutate loads a draft form, applies fn, checks the structural invariants and
// stores it. Published forms go back to draft since their questions changed.
func (s *FormService) mutate(ctx context.Context, id string, fn func(*models.Form) error) (*models.Form, error) {
	f, err := s.GetForm(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.Status == models.FormArchived {
		return nil, NewConflictError("archived forms are read-only")
	}
	if err := fn(f); err != nil {
		return nil, err
	}
	if errs := validateDraft(f); len(errs) > 0 {
		return nil, newValidationError("invalid form", errs)
	}
	f.UpdatedAt = s.now()
	if f.Status == models.FormPublished {
		f.Status = models.FormDraft
		f.PublishedAt = nil
	}
	if err := s.store.UpdateForm(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// validateDraft enforces the invariants a draft must always hold: unique
// question ids, unique option values, no self-reference and no cycles.
// Incomplete content (a dangling parent, a choice question without options)
// is only rejected on publish.
func validateDraft(f *models.Form) models.ValidationErrors {
	var errs models.ValidationErrors
	ids := map[string]struct{}{}
	for i := range f.Questions {
		q := &f.Questions[i]
		if _, dup := ids[q.ID]; dup {
			errs = append(errs, models.ValidationError{QuestionID: q.ID, Field: "id", Message: "duplicate question id"})
		}
		ids[q.ID] = struct{}{}
		for _, e := range models.ValidateQuestion(q) {
			// An empty option list is still being authored.
			if e.Field == "options" && len(q.Options) == 0 {
				continue
			}
			if e.Field == "options" || e.Field == "conditions" || e.Field == "type" {
				errs = append(errs, e)
			}
		}
	}
	if cycle := models.FindCycle(f.Questions); len(cycle) > 0 {
		errs = append(errs, models.ValidationError{QuestionID: cycle[0], Field: "conditions", Message: "dependency cycle: " + strings.Join(cycle, " -> ")})
	}
	return errs
}
