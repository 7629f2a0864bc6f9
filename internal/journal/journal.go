package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - initial builds table
// 1 - index on (program, seq) for per-program history
const currentSchemaVersion = 1

// ErrNotFound is returned when no entry has the requested id.
var ErrNotFound = errors.New("journal entry not found")

// Journal is the build journal.
//
// Each build attempt is one row, inserted when the build starts and
// updated when it finishes or is rolled back. Rows are never deleted by
// the pipelines, so the journal keeps history for programs that were
// later removed.
//
// Thread-safety: Journal is safe for concurrent use. The pool is limited
// to one connection, so statements run one at a time.
type Journal struct {
	db    *sql.DB
	ids   IDGenerator
	clock func() time.Time
}

// Option configures a Journal.
type Option func(*Journal)

// WithIDGenerator sets the generator for entry ids.
func WithIDGenerator(ids IDGenerator) Option {
	return func(j *Journal) {
		j.ids = ids
	}
}

// WithClock sets the time source for start and finish times.
func WithClock(clock func() time.Time) Option {
	return func(j *Journal) {
		j.clock = clock
	}
}

// Open creates or opens the journal database at path and brings its
// schema up to date. Safe to call on an existing database.
func Open(path string, opts ...Option) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect journal: %w", err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	j := &Journal{
		db:    db,
		ids:   UUIDv7Generator{},
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	if err := runMigrations(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// runMigrations applies incremental migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_builds_program_seq
		ON builds(program, seq)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// Begin inserts a running entry and returns its id.
func (j *Journal) Begin(ctx context.Context, program, language, command string) (string, error) {
	id := j.ids.Generate()
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO builds (id, program, language, command, started_at, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, program, language, command, formatTime(j.clock()), string(StatusRunning))
	if err != nil {
		return "", fmt.Errorf("begin build %s: %w", program, err)
	}
	return id, nil
}

// Finish records the outcome of the entry id. It fails if the entry does
// not exist or has already finished.
func (j *Journal) Finish(ctx context.Context, id string, out Outcome) error {
	if !out.Status.Terminal() {
		return fmt.Errorf("finish build %s: status %q is not terminal", id, out.Status)
	}
	var exitCode any
	if out.ExitCode != nil {
		exitCode = *out.ExitCode
	}
	res, err := j.db.ExecContext(ctx, `
		UPDATE builds
		SET finished_at = ?, status = ?, exit_code = ?, summary = ?, stdout_zst = ?, stderr_zst = ?
		WHERE id = ? AND status = ?
	`, formatTime(j.clock()), string(out.Status), exitCode, out.Summary,
		compress(out.Stdout), compress(out.Stderr), id, string(StatusRunning))
	if err != nil {
		return fmt.Errorf("finish build %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish build %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("finish build %s: %w", id, ErrNotFound)
	}
	return nil
}

// Amend changes the status of a finished entry, keeping everything else.
// It is used when a successful build is rolled back by a later step.
func (j *Journal) Amend(ctx context.Context, id string, status Status, summary string) error {
	if !status.Terminal() {
		return fmt.Errorf("amend build %s: status %q is not terminal", id, status)
	}
	res, err := j.db.ExecContext(ctx, `
		UPDATE builds SET status = ?, summary = ?
		WHERE id = ? AND status != ?
	`, string(status), summary, id, string(StatusRunning))
	if err != nil {
		return fmt.Errorf("amend build %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("amend build %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("amend build %s: %w", id, ErrNotFound)
	}
	return nil
}

const selectEntry = `
	SELECT seq, id, program, language, command, started_at, finished_at,
	       status, exit_code, summary, stdout_zst, stderr_zst
	FROM builds`

// Get returns the entry with the given id.
func (j *Journal) Get(ctx context.Context, id string) (Entry, error) {
	row := j.db.QueryRowContext(ctx, selectEntry+` WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("get build %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get build %s: %w", id, err)
	}
	return e, nil
}

// History returns entries for program newest first. An empty program
// returns entries for every program. limit <= 0 means no limit.
func (j *Journal) History(ctx context.Context, program string, limit int) ([]Entry, error) {
	query := selectEntry
	var args []any
	if program != "" {
		query += ` WHERE program = ?`
		args = append(args, program)
	}
	query += ` ORDER BY seq DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("read history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var (
		e          Entry
		startedAt  string
		finishedAt sql.NullString
		status     string
		exitCode   sql.NullInt64
		stdout     []byte
		stderr     []byte
	)
	if err := s.Scan(&e.Seq, &e.ID, &e.Program, &e.Language, &e.Command,
		&startedAt, &finishedAt, &status, &exitCode, &e.Summary, &stdout, &stderr); err != nil {
		return Entry{}, err
	}

	var err error
	if e.StartedAt, err = parseTime(startedAt); err != nil {
		return Entry{}, err
	}
	if finishedAt.Valid {
		if e.FinishedAt, err = parseTime(finishedAt.String); err != nil {
			return Entry{}, err
		}
	}
	e.Status = Status(status)
	if exitCode.Valid {
		code := int(exitCode.Int64)
		e.ExitCode = &code
	}
	if e.Stdout, err = decompress(stdout); err != nil {
		return Entry{}, fmt.Errorf("entry %s stdout: %w", e.ID, err)
	}
	if e.Stderr, err = decompress(stderr); err != nil {
		return Entry{}, fmt.Errorf("entry %s stderr: %w", e.ID, err)
	}
	return e, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
