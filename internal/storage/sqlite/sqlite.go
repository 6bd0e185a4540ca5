package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/maestrohq/maestroctl/internal/log"
	"github.com/maestrohq/maestroctl/internal/model"
	"github.com/maestrohq/maestroctl/internal/storage"
	"github.com/maestrohq/maestroctl/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.Repository.
type Repository struct {
	db       *sql.DB
	migrator *migrations.Migrator
	logger   log.Logger
}

var _ storage.Repository = &Repository{}

// NewRepository opens (creating it if missing) the history database and migrates it.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)

	return &Repository{db: db, migrator: migrator, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// SchemaVersion returns the applied schema version.
func (r *Repository) SchemaVersion(ctx context.Context) (uint, error) {
	if err := r.db.PingContext(ctx); err != nil {
		return 0, fmt.Errorf("could not reach database: %w", err)
	}

	return r.migrator.Version(ctx)
}

// SaveSession stores a new session.
func (r *Repository) SaveSession(ctx context.Context, s model.Session) error {
	if s.ID == "" || s.UserID == "" {
		return fmt.Errorf("session id and user are required: %w", model.ErrNotValid)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, created_at) VALUES (?, ?, ?)`,
		s.ID, s.UserID, s.CreatedAt.UnixNano(),
	)
	if err != nil {
		if isUniqueErr(err, "sessions") {
			return fmt.Errorf("session %s: %w", s.ID, model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert session: %w", err)
	}

	r.logger.Debugf("Saved session in repository: %s", s.ID)
	return nil
}

// GetLatestSession returns the newest session of the user.
func (r *Repository) GetLatestSession(ctx context.Context, userID string) (*model.Session, error) {
	query := `
		SELECT id, user_id, created_at
		FROM sessions
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`

	var (
		s         model.Session
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.ID, &s.UserID, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session for user %s: %w", userID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query session: %w", err)
	}
	s.CreatedAt = timeFromUnixNano(createdAt)

	return &s, nil
}

// SaveTask creates or replaces a task.
func (r *Repository) SaveTask(ctx context.Context, t model.Task) error {
	if t.ID == "" {
		return fmt.Errorf("task id is required: %w", model.ErrNotValid)
	}

	if err := upsertTask(ctx, r.db, t); err != nil {
		return err
	}

	r.logger.Debugf("Saved task in repository: %s", t.ID)
	return nil
}

// ResolveTask saves the task and appends its terminal message in a single transaction.
func (r *Repository) ResolveTask(ctx context.Context, t model.Task, msg model.Message) error {
	if t.ID == "" {
		return fmt.Errorf("task id is required: %w", model.ErrNotValid)
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	if msg.TaskID != t.ID || !msg.Kind.IsTerminal() {
		return fmt.Errorf("message %s does not resolve task %s: %w", msg.ID, t.ID, model.ErrNotValid)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := upsertTask(ctx, tx, t); err != nil {
		return err
	}
	if err := insertMessage(ctx, tx, msg); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit task resolution: %w", err)
	}

	r.logger.Debugf("Resolved task in repository: %s", t.ID)
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertTask(ctx context.Context, db execer, t model.Task) error {
	query := `
		INSERT INTO tasks (
			id, session_id, description,
			status, phase,
			plan, result, error,
			created_at, finished_at, resolved_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			session_id = excluded.session_id,
			description = excluded.description,
			status = excluded.status,
			phase = excluded.phase,
			plan = excluded.plan,
			result = excluded.result,
			error = excluded.error,
			created_at = excluded.created_at,
			finished_at = excluded.finished_at,
			resolved_at = excluded.resolved_at
	`

	_, err := db.ExecContext(
		ctx,
		query,
		t.ID,
		t.SessionID,
		t.Description,
		t.Status,
		t.Phase,
		nullJSON(t.Plan),
		nullJSON(t.Result),
		t.Error,
		t.CreatedAt.UnixNano(),
		nullUnixNano(t.FinishedAt),
		nullUnixNano(t.ResolvedAt),
	)
	if err != nil {
		return fmt.Errorf("could not save task: %w", err)
	}

	return nil
}

const taskColumns = `
	id, session_id, description,
	status, phase,
	plan, result, error,
	created_at, finished_at, resolved_at
`

// GetTask retrieves a task by ID.
func (r *Repository) GetTask(ctx context.Context, id string) (*model.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query task: %w", err)
	}

	return &t, nil
}

// ListTasks returns the session tasks, newest first.
func (r *Repository) ListTasks(ctx context.Context, sessionID string) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return tasks, nil
}

// AppendMessages adds messages at the end of the history in a single transaction.
func (r *Repository) AppendMessages(ctx context.Context, msgs ...model.Message) error {
	for _, m := range msgs {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("invalid message: %w", err)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, m := range msgs {
		if err := insertMessage(ctx, tx, m); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit messages: %w", err)
	}

	r.logger.Debugf("Appended %d messages in repository", len(msgs))
	return nil
}

func insertMessage(ctx context.Context, db execer, m model.Message) error {
	query := `
		INSERT INTO messages (id, session_id, role, kind, content, task_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.ExecContext(ctx, query, m.ID, m.SessionID, m.Role, m.Kind, m.Content, m.TaskID, m.Timestamp.UnixNano())
	if err != nil {
		if isUniqueErr(err, "messages") {
			return fmt.Errorf("message %s: %w", m.ID, model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert message: %w", err)
	}

	return nil
}

// ListMessages returns the last messages of a session in chronological order.
func (r *Repository) ListMessages(ctx context.Context, sessionID string, limit int) ([]model.Message, error) {
	if limit <= 0 {
		// SQLite negative limit means no limit.
		limit = -1
	}

	query := `
		SELECT id, session_id, role, kind, content, task_id, created_at
		FROM (
			SELECT seq, id, session_id, role, kind, content, task_id, created_at
			FROM messages
			WHERE session_id = ?
			ORDER BY seq DESC
			LIMIT ?
		)
		ORDER BY seq ASC
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("could not query messages: %w", err)
	}
	defer rows.Close()

	msgs := []model.Message{}
	for rows.Next() {
		var (
			m         model.Message
			createdAt int64
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Kind, &m.Content, &m.TaskID, &createdAt); err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		m.Timestamp = timeFromUnixNano(createdAt)
		msgs = append(msgs, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return msgs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (model.Task, error) {
	var (
		t            model.Task
		plan, result sql.NullString
		createdAt    int64
		finishedAt   sql.NullInt64
		resolvedAt   sql.NullInt64
	)

	err := s.Scan(
		&t.ID,
		&t.SessionID,
		&t.Description,
		&t.Status,
		&t.Phase,
		&plan,
		&result,
		&t.Error,
		&createdAt,
		&finishedAt,
		&resolvedAt,
	)
	if err != nil {
		return model.Task{}, err
	}

	if plan.Valid {
		t.Plan = json.RawMessage(plan.String)
	}
	if result.Valid {
		t.Result = json.RawMessage(result.String)
	}
	t.CreatedAt = timeFromUnixNano(createdAt)
	t.FinishedAt = timePtrFromUnixNano(finishedAt)
	t.ResolvedAt = timePtrFromUnixNano(resolvedAt)

	return t, nil
}

func nullJSON(data json.RawMessage) *string {
	if len(data) == 0 {
		return nil
	}
	s := string(data)
	return &s
}

func isUniqueErr(err error, table string) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed: "+table+".")
}

func nullUnixNano(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	n := t.UnixNano()
	return &n
}

func timeFromUnixNano(n int64) time.Time { return time.Unix(0, n).UTC() }

func timePtrFromUnixNano(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := timeFromUnixNano(n.Int64)
	return &t
}
