package storage

import (
	"database/sql"
	"fmt"
	"time"

	"portfolio-runner/src/logger"
	"portfolio-runner/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

// SQLiteJournal records runner lifecycle events in a local database.
// Unlike the app's own (out of scope) persistence this is tool state only.
type SQLiteJournal struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteJournal(cfg *models.MConfig, log *logger.Logger) (*SQLiteJournal, error) {
	return &SQLiteJournal{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (j *SQLiteJournal) Initialize() error {
	dsn := j.Config.Journal.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	j.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		j.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		j.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return j.createTables()
}

// -----------------------------------------------------------------------------

func (j *SQLiteJournal) createTables() error {
	// The journal persists across runs, so tables are created, never dropped
	query := `
		CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			detail TEXT,
			created_at INTEGER NOT NULL
		);
	`
	if _, err := j.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create events: %w", err)
	}

	query = `
		CREATE TABLE IF NOT EXISTS process_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pid INTEGER,
			started_at INTEGER NOT NULL,
			ended_at INTEGER,
			exit_detail TEXT
		);
	`
	if _, err := j.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create process_runs: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (j *SQLiteJournal) RecordEvent(kind string, detail string) error {
	_, err := j.DB.Exec(
		"INSERT INTO events (kind, detail, created_at) VALUES (?, ?, ?)",
		kind, detail, time.Now().UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// RecordRunStart opens a process_runs row and returns its id
func (j *SQLiteJournal) RecordRunStart(pid int) (int64, error) {
	res, err := j.DB.Exec(
		"INSERT INTO process_runs (pid, started_at) VALUES (?, ?)",
		pid, time.Now().UTC().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record run start: %w", err)
	}
	return res.LastInsertId()
}

// -----------------------------------------------------------------------------

func (j *SQLiteJournal) RecordRunEnd(runID int64, exitDetail string) error {
	_, err := j.DB.Exec(
		"UPDATE process_runs SET ended_at = ?, exit_detail = ? WHERE id = ?",
		time.Now().UTC().Unix(), exitDetail, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to record run end: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (j *SQLiteJournal) RecentEvents(limit int) ([]models.MEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := j.DB.Query(
		"SELECT id, kind, detail, created_at FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []models.MEvent
	for rows.Next() {
		var e models.MEvent
		if err := rows.Scan(&e.ID, &e.Kind, &e.Detail, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

// -----------------------------------------------------------------------------

func (j *SQLiteJournal) CleanupOldEvents() error {
	retentionDays := j.Config.Journal.RetentionDays
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Unix()

	if _, err := j.DB.Exec("DELETE FROM events WHERE created_at < ?", cutoff); err != nil {
		j.Logger.Error("Cleanup events error: %v", err)
	}
	if _, err := j.DB.Exec("DELETE FROM process_runs WHERE started_at < ?", cutoff); err != nil {
		j.Logger.Error("Cleanup process_runs error: %v", err)
	}

	j.Logger.Info("Journal cleanup completed (older than %d days)", retentionDays)
	return nil
}

// -----------------------------------------------------------------------------

func (j *SQLiteJournal) Close() error {
	if j.DB != nil {
		return j.DB.Close()
	}
	return nil
}
