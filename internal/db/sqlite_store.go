package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/soaringjerry/medscore/internal/models"
	"github.com/soaringjerry/medscore/internal/services"
)

// Fixed width so that stored timestamps sort lexically.
const sqliteTime = "2006-01-02T15:04:05.000000000Z"

type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewSQLiteStore(db *sql.DB, logger zerolog.Logger) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db, logger: logger.With().Str("store", "sqlite").Logger()}, nil
}

// OpenSQLite opens path with the sqlite3 driver. An in-memory database is
// private to each connection, so it is pinned to a single one.
func OpenSQLite(path string) (*sql.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if path == ":memory:" || strings.Contains(path, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

var _ services.Store = (*SQLiteStore)(nil)

func isConstraintErr(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.Code == sqlite3.ErrConstraint
}

func formatSQLiteTime(t time.Time) string { return t.UTC().Format(sqliteTime) }

func (s *SQLiteStore) InsertForm(ctx context.Context, f *models.Form) error {
	doc, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode form: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO forms (id, title, status, doc, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.Title, string(f.Status), string(doc), formatSQLiteTime(f.CreatedAt), formatSQLiteTime(f.UpdatedAt))
	if isConstraintErr(err) {
		return services.NewConflictError("form already exists")
	}
	return err
}

func (s *SQLiteStore) GetForm(ctx context.Context, id string) (*models.Form, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM forms WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var f models.Form
	if err := json.Unmarshal([]byte(doc), &f); err != nil {
		return nil, fmt.Errorf("decode form %s: %w", id, err)
	}
	return &f, nil
}

func (s *SQLiteStore) UpdateForm(ctx context.Context, f *models.Form) error {
	doc, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode form: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE forms SET title = ?, status = ?, doc = ?, updated_at = ? WHERE id = ?`,
		f.Title, string(f.Status), string(doc), formatSQLiteTime(f.UpdatedAt), f.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.NewNotFoundError("form not found")
	}
	return nil
}

func (s *SQLiteStore) DeleteForm(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM forms WHERE id = ?`, id)
	return err
}

// ListForms skips rows that no longer decode and logs them.
func (s *SQLiteStore) ListForms(ctx context.Context) ([]*models.Form, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, doc FROM forms ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn().Err(cerr).Msg("ListForms: rows.Close")
		}
	}()
	out := []*models.Form{}
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		var f models.Form
		if err := json.Unmarshal([]byte(doc), &f); err != nil {
			s.logger.Error().Err(err).Str("form_id", id).Msg("decode form")
			continue
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveSession(ctx context.Context, sess *models.Session) error {
	doc, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO sessions (id, form_id, doc, updated_at) VALUES (?, ?, ?, ?)
      ON CONFLICT(id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		sess.ID, sess.FormID, string(doc), formatSQLiteTime(sess.UpdatedAt))
	return err
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM sessions WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess models.Session
	if err := json.Unmarshal([]byte(doc), &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &sess, nil
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) InsertResult(ctx context.Context, r *models.AssessmentResult) error {
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO results (id, form_id, session_id, percentage_score, risk_level, doc, completed_at)
      VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.FormID, r.SessionID, r.PercentageScore, string(r.RiskLevel), string(doc), formatSQLiteTime(r.CompletedAt))
	if isConstraintErr(err) {
		return services.NewConflictError("result already exists")
	}
	return err
}

func (s *SQLiteStore) GetResult(ctx context.Context, id string) (*models.AssessmentResult, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM results WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var r models.AssessmentResult
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", id, err)
	}
	return &r, nil
}

func (s *SQLiteStore) ListResults(ctx context.Context, formID string, since time.Time) ([]*models.AssessmentResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, doc FROM results WHERE form_id = ? AND completed_at >= ?
      ORDER BY completed_at ASC, id ASC`, formID, formatSQLiteTime(since))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn().Err(cerr).Msg("ListResults: rows.Close")
		}
	}()
	out := []*models.AssessmentResult{}
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		var r models.AssessmentResult
		if err := json.Unmarshal([]byte(doc), &r); err != nil {
			s.logger.Error().Err(err).Str("result_id", id).Msg("decode result")
			continue
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
