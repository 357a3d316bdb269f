package archive

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pevans/noticeharvest/notice"
)

var ErrRunNotFound = errors.New("run not found")

// Store records harvest runs using SQLite.
type Store struct {
	db *sql.DB
}

// Run is one archived harvest.
type Run struct {
	RunID        uuid.UUID       `json:"run_id"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   time.Time       `json:"finished_at"`
	LastUpdated  string          `json:"last_updated"`
	UsedFallback bool            `json:"used_fallback"`
	ErrorCount   int             `json:"error_count"`
	NoticeCount  int             `json:"notice_count"`
	Notices      []notice.Notice `json:"notices,omitempty"`
}

// NewRun builds an archive record for a finished harvest.
func NewRun(
	result *notice.HarvestResult,
	startedAt, finishedAt time.Time,
	usedFallback bool,
	errorCount int,
) *Run {
	notices := make([]notice.Notice, len(result.Notices))
	copy(notices, result.Notices)

	return &Run{
		RunID:        uuid.New(),
		StartedAt:    startedAt,
		FinishedAt:   finishedAt,
		LastUpdated:  result.LastUpdated,
		UsedFallback: usedFallback,
		ErrorCount:   errorCount,
		NoticeCount:  len(notices),
		Notices:      notices,
	}
}

// Result returns the run as the document the harvester wrote.
func (r *Run) Result() *notice.HarvestResult {
	return &notice.HarvestResult{
		Notices:     r.Notices,
		LastUpdated: r.LastUpdated,
	}
}

// NewStore opens (and if needed creates) the archive at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		started_ns INTEGER NOT NULL,
		finished_at TEXT NOT NULL,
		last_updated TEXT NOT NULL,
		used_fallback INTEGER NOT NULL DEFAULT 0,
		error_count INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS run_notices (
		run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		href TEXT NOT NULL,
		summary TEXT NOT NULL,
		board TEXT NOT NULL,
		board_id TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_ns DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores a run and its notices in one transaction. A run without
// an ID is given one.
func (s *Store) RecordRun(run *Run) error {
	if run.RunID == uuid.Nil {
		run.RunID = uuid.New()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (
			run_id, started_at, started_ns, finished_at,
			last_updated, used_fallback, error_count
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		run.RunID.String(),
		formatTime(run.StartedAt),
		run.StartedAt.UnixNano(),
		formatTime(run.FinishedAt),
		run.LastUpdated,
		run.UsedFallback,
		run.ErrorCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO run_notices (
			run_id, position, title, href, summary, board, board_id
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare notice insert: %w", err)
	}
	defer stmt.Close()

	for i, n := range run.Notices {
		if _, err := stmt.Exec(
			run.RunID.String(), i,
			n.Title, n.Href, n.Summary, n.Board, n.BoardID,
		); err != nil {
			return fmt.Errorf("failed to insert notice %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	run.NoticeCount = len(run.Notices)
	return nil
}

const runColumns = `
	SELECT r.run_id, r.started_at, r.finished_at, r.last_updated,
	       r.used_fallback, r.error_count,
	       (SELECT COUNT(*) FROM run_notices n WHERE n.run_id = r.run_id)
	FROM runs r
`

// ListRuns lists runs newest first, without their notices. A limit of zero
// or less returns every run.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	query := runColumns + " ORDER BY r.started_ns DESC, r.rowid DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

// GetRun retrieves a run with its notices.
func (s *Store) GetRun(runID uuid.UUID) (*Run, error) {
	row := s.db.QueryRow(runColumns+" WHERE r.run_id = ?", runID.String())
	return s.loadRun(row)
}

// LatestRun retrieves the most recently started run with its notices.
func (s *Store) LatestRun() (*Run, error) {
	row := s.db.QueryRow(runColumns + " ORDER BY r.started_ns DESC, r.rowid DESC LIMIT 1")
	return s.loadRun(row)
}

func (s *Store) loadRun(row *sql.Row) (*Run, error) {
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}

	notices, err := s.listNotices(run.RunID)
	if err != nil {
		return nil, err
	}
	run.Notices = notices

	return run, nil
}

func (s *Store) listNotices(runID uuid.UUID) ([]notice.Notice, error) {
	rows, err := s.db.Query(`
		SELECT title, href, summary, board, board_id
		FROM run_notices
		WHERE run_id = ?
		ORDER BY position
	`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query notices: %w", err)
	}
	defer rows.Close()

	notices := []notice.Notice{}
	for rows.Next() {
		var n notice.Notice
		if err := rows.Scan(&n.Title, &n.Href, &n.Summary, &n.Board, &n.BoardID); err != nil {
			return nil, fmt.Errorf("failed to scan notice: %w", err)
		}
		notices = append(notices, n)
	}

	return notices, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var runIDStr, startedAtStr, finishedAtStr, lastUpdated string
	var usedFallback bool
	var errorCount, noticeCount int

	err := row.Scan(
		&runIDStr, &startedAtStr, &finishedAtStr, &lastUpdated,
		&usedFallback, &errorCount, &noticeCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	runID, err := uuid.Parse(runIDStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse run ID: %w", err)
	}

	return &Run{
		RunID:        runID,
		StartedAt:    parseTime(startedAtStr),
		FinishedAt:   parseTime(finishedAtStr),
		LastUpdated:  lastUpdated,
		UsedFallback: usedFallback,
		ErrorCount:   errorCount,
		NoticeCount:  noticeCount,
	}, nil
}

func formatTime(t time.Time) string {
	// Strip monotonic clock for consistent storage and comparisons
	return t.Truncate(0).Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t.Truncate(0)
}
