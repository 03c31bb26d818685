package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/soaringjerry/medscore/internal/models"
	"github.com/soaringjerry/medscore/internal/services"
)

const pgUniqueViolation = "23505"

// queryable is satisfied by both *pgxpool.Pool and pgx.Tx.
type queryable interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore keeps forms, sessions and results as JSONB documents.
type PGStore struct {
	pool   *pgxpool.Pool
	conn   queryable
	logger zerolog.Logger
}

func NewPGStore(pool *pgxpool.Pool, logger zerolog.Logger) *PGStore {
	return &PGStore{pool: pool, conn: pool, logger: logger.With().Str("store", "postgres").Logger()}
}

var _ services.Store = (*PGStore)(nil)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (s *PGStore) InsertForm(ctx context.Context, f *models.Form) error {
	doc, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode form: %w", err)
	}
	_, err = s.conn.Exec(ctx, `INSERT INTO forms (id, title, status, doc, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		f.ID, f.Title, string(f.Status), doc, f.CreatedAt, f.UpdatedAt)
	if isUniqueViolation(err) {
		return services.NewConflictError("form already exists")
	}
	return err
}

func (s *PGStore) GetForm(ctx context.Context, id string) (*models.Form, error) {
	var doc []byte
	err := s.conn.QueryRow(ctx, `SELECT doc FROM forms WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var f models.Form
	if err := json.Unmarshal(doc, &f); err != nil {
		return nil, fmt.Errorf("decode form %s: %w", id, err)
	}
	return &f, nil
}

func (s *PGStore) UpdateForm(ctx context.Context, f *models.Form) error {
	doc, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode form: %w", err)
	}
	tag, err := s.conn.Exec(ctx, `UPDATE forms SET title = $1, status = $2, doc = $3, updated_at = $4 WHERE id = $5`,
		f.Title, string(f.Status), doc, f.UpdatedAt, f.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return services.NewNotFoundError("form not found")
	}
	return nil
}

func (s *PGStore) DeleteForm(ctx context.Context, id string) error {
	_, err := s.conn.Exec(ctx, `DELETE FROM forms WHERE id = $1`, id)
	return err
}

func (s *PGStore) ListForms(ctx context.Context) ([]*models.Form, error) {
	rows, err := s.conn.Query(ctx, `SELECT id, doc FROM forms ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*models.Form{}
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		var f models.Form
		if err := json.Unmarshal(doc, &f); err != nil {
			s.logger.Error().Err(err).Str("form_id", id).Msg("decode form")
			continue
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

func (s *PGStore) SaveSession(ctx context.Context, sess *models.Session) error {
	doc, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = s.conn.Exec(ctx, `INSERT INTO sessions (id, form_id, doc, updated_at) VALUES ($1, $2, $3, $4)
      ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at`,
		sess.ID, sess.FormID, doc, sess.UpdatedAt)
	return err
}

func (s *PGStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var doc []byte
	err := s.conn.QueryRow(ctx, `SELECT doc FROM sessions WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess models.Session
	if err := json.Unmarshal(doc, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &sess, nil
}

func (s *PGStore) DeleteSession(ctx context.Context, id string) error {
	_, err := s.conn.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

func (s *PGStore) InsertResult(ctx context.Context, r *models.AssessmentResult) error {
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = s.conn.Exec(ctx, `INSERT INTO results (id, form_id, session_id, percentage_score, risk_level, doc, completed_at)
      VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.FormID, r.SessionID, r.PercentageScore, string(r.RiskLevel), doc, r.CompletedAt)
	if isUniqueViolation(err) {
		return services.NewConflictError("result already exists")
	}
	return err
}

func (s *PGStore) GetResult(ctx context.Context, id string) (*models.AssessmentResult, error) {
	var doc []byte
	err := s.conn.QueryRow(ctx, `SELECT doc FROM results WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var r models.AssessmentResult
	if err := json.Unmarshal(doc, &r); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", id, err)
	}
	return &r, nil
}

func (s *PGStore) ListResults(ctx context.Context, formID string, since time.Time) ([]*models.AssessmentResult, error) {
	rows, err := s.conn.Query(ctx, `SELECT id, doc FROM results WHERE form_id = $1 AND completed_at >= $2
      ORDER BY completed_at ASC, id ASC`, formID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*models.AssessmentResult{}
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		var r models.AssessmentResult
		if err := json.Unmarshal(doc, &r); err != nil {
			s.logger.Error().Err(err).Str("result_id", id).Msg("decode result")
			continue
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// Close releases the pool.
func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}
