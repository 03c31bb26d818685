package services

import (
	"context"
	"errors"
	"time"

	"github.com/soaringjerry/medscore/internal/models"
)

type ErrorCode string

const (
	ErrorInvalid   ErrorCode = "invalid"
	ErrorForbidden ErrorCode = "forbidden"
	ErrorNotFound  ErrorCode = "not_found"
	ErrorConflict  ErrorCode = "conflict"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
	// Details carries validation failures for ErrorInvalid.
	Details models.ValidationErrors
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error   { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewNotFoundError(msg string) error  { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error  { return &ServiceError{Code: ErrorConflict, Message: msg} }

func newValidationError(msg string, errs models.ValidationErrors) error {
	return &ServiceError{Code: ErrorInvalid, Message: msg + ": " + errs.Error(), Details: errs}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsNotFound reports whether err is a not_found ServiceError.
func IsNotFound(err error) bool {
	se, ok := AsServiceError(err)
	return ok && se.Code == ErrorNotFound
}

// FormStore persists form definitions. Get returns (nil, nil) when absent.
type FormStore interface {
	InsertForm(ctx context.Context, f *models.Form) error
	GetForm(ctx context.Context, id string) (*models.Form, error)
	UpdateForm(ctx context.Context, f *models.Form) error
	DeleteForm(ctx context.Context, id string) error
	ListForms(ctx context.Context) ([]*models.Form, error)
}

// SessionStore persists in-progress assessments. Get returns (nil, nil) when absent.
type SessionStore interface {
	SaveSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// ResultStore persists completed results. Get returns (nil, nil) when absent.
// ListResults returns results of a form completed at or after since, oldest first.
type ResultStore interface {
	InsertResult(ctx context.Context, r *models.AssessmentResult) error
	GetResult(ctx context.Context, id string) (*models.AssessmentResult, error)
	ListResults(ctx context.Context, formID string, since time.Time) ([]*models.AssessmentResult, error)
}

// Store bundles every persistence concern; each backend implements all of it.
type Store interface {
	FormStore
	SessionStore
	ResultStore
	Close() error
}
