package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteDB implements the DB interface using SQLite.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens (creating if needed) a SQLite database at path.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode so readers don't block the writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Migrate creates the schema.
func (s *SQLiteDB) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			deck TEXT NOT NULL,
			target INTEGER NOT NULL,
			expected_total REAL NOT NULL,
			expected_draws REAL NOT NULL,
			mass REAL NOT NULL DEFAULT 0,
			states INTEGER NOT NULL DEFAULT 0,
			games INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			engine_version TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS marginals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			axis TEXT NOT NULL,
			value INTEGER NOT NULL,
			probability REAL NOT NULL,
			FOREIGN KEY (run_id) REFERENCES runs(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_marginals_run ON marginals(run_id, axis, value)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind, created_at DESC)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// SaveRun inserts a run and its marginal rows in one transaction.
// A missing run ID is filled in.
func (s *SQLiteDB) SaveRun(run *Run, marginals []Marginal) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs (
		id, kind, deck, target, expected_total, expected_draws,
		mass, states, games, duration_ms, engine_version
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.Deck, run.Target, run.ExpectedTotal, run.ExpectedDraws,
		run.Mass, run.States, run.Games, run.DurationMs, run.EngineVersion,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if len(marginals) > 0 {
		stmt, err := tx.Prepare("INSERT INTO marginals (run_id, axis, value, probability) VALUES (?, ?, ?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, m := range marginals {
			if _, err := stmt.Exec(run.ID, m.Axis, m.Value, m.Probability); err != nil {
				return fmt.Errorf("insert marginal: %w", err)
			}
		}
	}

	return tx.Commit()
}

const runColumns = `id, kind, deck, target, expected_total, expected_draws,
	mass, states, games, duration_ms, engine_version, created_at`

func scanRun(scan func(...any) error) (*Run, error) {
	var run Run
	err := scan(
		&run.ID, &run.Kind, &run.Deck, &run.Target, &run.ExpectedTotal, &run.ExpectedDraws,
		&run.Mass, &run.States, &run.Games, &run.DurationMs, &run.EngineVersion, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteDB) GetRun(id string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	return scanRun(row.Scan)
}

// ListRuns returns a page of runs, newest first, optionally filtered by
// kind.
func (s *SQLiteDB) ListRuns(query RunsQuery) (*RunsList, error) {
	whereClause := ""
	args := []any{}
	if query.Kind != "" {
		whereClause = "WHERE kind = ?"
		args = append(args, query.Kind)
	}

	var totalCount int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM runs "+whereClause, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	if query.PerPage <= 0 {
		query.PerPage = 50
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	totalPages := (totalCount + query.PerPage - 1) / query.PerPage
	offset := (query.Page - 1) * query.PerPage

	mainQuery := `SELECT ` + runColumns + ` FROM runs ` + whereClause + `
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`
	args = append(args, query.PerPage, offset)

	rows, err := s.db.Query(mainQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return &RunsList{
		Runs:       runs,
		TotalCount: totalCount,
		Page:       query.Page,
		PerPage:    query.PerPage,
		TotalPages: totalPages,
	}, nil
}

// GetMarginals returns a run's marginal rows ordered by axis then value.
func (s *SQLiteDB) GetMarginals(runID string) ([]Marginal, error) {
	rows, err := s.db.Query(
		`SELECT axis, value, probability FROM marginals WHERE run_id = ? ORDER BY axis, value`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query marginals: %w", err)
	}
	defer rows.Close()

	var marginals []Marginal
	for rows.Next() {
		var m Marginal
		if err := rows.Scan(&m.Axis, &m.Value, &m.Probability); err != nil {
			return nil, fmt.Errorf("failed to scan marginal: %w", err)
		}
		marginals = append(marginals, m)
	}
	return marginals, rows.Err()
}
