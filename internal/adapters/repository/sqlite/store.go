// Package sqlite persists the user state overlay and its decision log in a
// SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/elockenvitz/tesseract/internal/adapters/repository"
	"github.com/elockenvitz/tesseract/internal/domain/model"
	"github.com/elockenvitz/tesseract/pkg/logger"
)

const timeLayout = time.RFC3339Nano

// Store is a SQLite-backed state store.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open opens (creating if needed) the database at path with foreign keys on
// and applies pending migrations.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	// One writer at a time keeps read-modify-write decisions serialized.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("state-store")
	}

	version, err := migrate(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate state db: %w", err)
	}
	s.logger.Info(ctx, "state store ready", logger.String("path", path), logger.Int("schema_version", version))
	return s, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReadAll returns every state record for userID.
func (s *Store) ReadAll(ctx context.Context, userID string) (map[string]model.UserState, error) {
	if userID == "" {
		return nil, repository.ErrMissingUser
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT attention_id, read_state, last_viewed_at, snoozed_until, dismissed_at,
		       dismiss_reason, dismiss_note, acknowledged_at, updated_at
		FROM user_state WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]model.UserState)
	for rows.Next() {
		st, err := scanState(rows)
		if err != nil {
			return nil, err
		}
		out[st.AttentionID] = st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user state: %w", err)
	}
	return out, nil
}

// WriteDecision folds d into the stored state and appends it to the log in
// one transaction.
func (s *Store) WriteDecision(ctx context.Context, userID, attentionID string, d model.Decision) error {
	if err := repository.CheckWrite(userID, attentionID, d); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT attention_id, read_state, last_viewed_at, snoozed_until, dismissed_at,
		       dismiss_reason, dismiss_note, acknowledged_at, updated_at
		FROM user_state WHERE user_id = ? AND attention_id = ?`, userID, attentionID)
	current, err := scanState(row)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	next := current.Apply(attentionID, d)

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_state (user_id, attention_id, read_state, last_viewed_at, snoozed_until,
		                        dismissed_at, dismiss_reason, dismiss_note, acknowledged_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, attention_id) DO UPDATE SET
			read_state = excluded.read_state,
			last_viewed_at = excluded.last_viewed_at,
			snoozed_until = excluded.snoozed_until,
			dismissed_at = excluded.dismissed_at,
			dismiss_reason = excluded.dismiss_reason,
			dismiss_note = excluded.dismiss_note,
			acknowledged_at = excluded.acknowledged_at,
			updated_at = excluded.updated_at`,
		userID, attentionID, string(next.ReadState), formatTime(next.LastViewedAt), formatTime(next.SnoozedUntil),
		formatTime(next.DismissedAt), next.DismissReason, next.DismissNote, formatTime(next.AcknowledgedAt),
		next.UpdatedAt.UTC().Format(timeLayout),
	); err != nil {
		return fmt.Errorf("upsert user state: %w", err)
	}

	e := repository.NewLogEntry(userID, attentionID, d)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO decision_log (id, user_id, attention_id, kind, until_at, reason, note, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.AttentionID, string(e.Kind), formatTime(e.Until), e.Reason, e.Note,
		e.At.UTC().Format(timeLayout),
	); err != nil {
		return fmt.Errorf("append decision log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// History returns the user's decisions for attentionID in write order. An
// empty attentionID returns every decision of the user.
func (s *Store) History(ctx context.Context, userID, attentionID string) ([]repository.LogEntry, error) {
	if userID == "" {
		return nil, repository.ErrMissingUser
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, attention_id, kind, until_at, reason, note, at
		FROM decision_log
		WHERE user_id = ? AND (? = '' OR attention_id = ?)
		ORDER BY rowid`, userID, attentionID, attentionID)
	if err != nil {
		return nil, fmt.Errorf("query decision log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]repository.LogEntry, 0)
	for rows.Next() {
		var (
			e     repository.LogEntry
			kind  string
			until sql.NullString
			at    string
		)
		if err := rows.Scan(&e.ID, &e.AttentionID, &kind, &until, &e.Reason, &e.Note, &at); err != nil {
			return nil, fmt.Errorf("scan decision log: %w", err)
		}
		e.UserID = userID
		e.Kind = model.DecisionKind(kind)
		if e.Until, err = parseNullTime(until); err != nil {
			return nil, err
		}
		if e.At, err = time.Parse(timeLayout, at); err != nil {
			return nil, fmt.Errorf("parse decision time: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decision log: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanState(row scanner) (model.UserState, error) {
	var (
		st                                       model.UserState
		readState, updated                       string
		viewed, snoozed, dismissed, acknowledged sql.NullString
	)
	if err := row.Scan(&st.AttentionID, &readState, &viewed, &snoozed, &dismissed,
		&st.DismissReason, &st.DismissNote, &acknowledged, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.UserState{}, err
		}
		return model.UserState{}, fmt.Errorf("scan user state: %w", err)
	}
	st.ReadState = model.ReadState(readState)

	var err error
	if st.LastViewedAt, err = parseNullTime(viewed); err != nil {
		return st, err
	}
	if st.SnoozedUntil, err = parseNullTime(snoozed); err != nil {
		return st, err
	}
	if st.DismissedAt, err = parseNullTime(dismissed); err != nil {
		return st, err
	}
	if st.AcknowledgedAt, err = parseNullTime(acknowledged); err != nil {
		return st, err
	}
	if st.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return st, fmt.Errorf("parse updated_at: %w", err)
	}
	return st, nil
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil, fmt.Errorf("parse time %q: %w", s.String, err)
	}
	return &t, nil
}
