package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Run is one recorded assembly.
type Run struct {
	ID         string        `json:"run_id"`
	Project    string        `json:"project"`
	ProjectDir string        `json:"project_dir"`
	Strategy   string        `json:"strategy"`
	Success    bool          `json:"success"`
	DryRun     bool          `json:"dry_run"`
	OutputFile string        `json:"output_file,omitempty"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Elapsed    time.Duration `json:"elapsed"`
	Stages     []Stage       `json:"stages,omitempty"`
}

// Stage is one stage result within a run.
type Stage struct {
	Name     string        `json:"name"`
	Success  bool          `json:"success"`
	Elapsed  time.Duration `json:"elapsed"`
	Output   string        `json:"output,omitempty"`
	Error    string        `json:"error,omitempty"`
	Category string        `json:"category,omitempty"`
	Note     string        `json:"note,omitempty"`
}

// Store is the SQLite-backed run ledger.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to (or creates) the ledger at path and applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	store := &Store{db: db, path: path}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun inserts run and its stages atomically. Recording the same ID
// twice replaces the earlier entry.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("run id is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, run.ID); err != nil {
		return fmt.Errorf("clear previous run: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (
            id, project, project_dir, strategy, success, dry_run,
            output_file, error_message, started_at, finished_at, elapsed_ms
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Project,
		run.ProjectDir,
		run.Strategy,
		boolToInt(run.Success),
		boolToInt(run.DryRun),
		nullableString(run.OutputFile),
		nullableString(run.Error),
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		run.Elapsed.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for i, stage := range run.Stages {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO stage_results (
                run_id, position, name, success, elapsed_ms, output, error_message, category, note
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			i,
			stage.Name,
			boolToInt(stage.Success),
			stage.Elapsed.Milliseconds(),
			nullableString(stage.Output),
			nullableString(stage.Error),
			nullableString(stage.Category),
			nullableString(stage.Note),
		)
		if err != nil {
			return fmt.Errorf("insert stage %s: %w", stage.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

const runColumns = `id, project, project_dir, strategy, success, dry_run, output_file, error_message, started_at, finished_at, elapsed_ms`

// ListRuns returns the most recent runs first, without stages. limit <= 0
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns a run with its stages, or nil when id is unknown.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, success, elapsed_ms, output, error_message, category, note
         FROM stage_results WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			stage                          Stage
			success                        int
			elapsedMS                      int64
			output, errMsg, category, note sql.NullString
		)
		if err := rows.Scan(&stage.Name, &success, &elapsedMS, &output, &errMsg, &category, &note); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		stage.Success = success != 0
		stage.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		stage.Output = output.String
		stage.Error = errMsg.String
		stage.Category = category.String
		stage.Note = note.String
		run.Stages = append(run.Stages, stage)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stages: %w", err)
	}
	return &run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run                 Run
		success, dryRun     int
		output, errMsg      sql.NullString
		startedAt, finished string
		elapsedMS           int64
	)
	err := row.Scan(&run.ID, &run.Project, &run.ProjectDir, &run.Strategy, &success, &dryRun,
		&output, &errMsg, &startedAt, &finished, &elapsedMS)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Success = success != 0
	run.DryRun = dryRun != 0
	run.OutputFile = output.String
	run.Error = errMsg.String
	run.StartedAt = parseTime(startedAt)
	run.FinishedAt = parseTime(finished)
	run.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	return run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
