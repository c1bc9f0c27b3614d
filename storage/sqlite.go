package storage

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"auctionpipe/models"
)

// OpsStore is the local operational database: run bookkeeping, run logs
// and a backup copy of every row pushed to the record store, so an outage
// on the remote side never loses scraped data.
type OpsStore struct {
	db *sql.DB
}

func NewOpsStore(dbPath string) (*OpsStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &OpsStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *OpsStore) Close() error {
	return s.db.Close()
}

func (s *OpsStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS ingest_runs (
		id INTEGER PRIMARY KEY,
		start_date TEXT,
		end_date TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		auctions_found INTEGER DEFAULT 0,
		lots_found INTEGER DEFAULT 0,
		imported INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0,
		discarded INTEGER DEFAULT 0,
		message TEXT
	);

	CREATE TABLE IF NOT EXISTS run_logs (
		id INTEGER PRIMARY KEY,
		run_id INTEGER,
		timestamp DATETIME,
		level TEXT,
		message TEXT
	);

	CREATE TABLE IF NOT EXISTS record_backup (
		id INTEGER PRIMARY KEY,
		fingerprint TEXT,
		sheet TEXT,
		row JSON,
		run_id INTEGER,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_logs_run ON run_logs(run_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON ingest_runs(status, started_at);
	CREATE INDEX IF NOT EXISTS idx_backup_fingerprint ON record_backup(fingerprint);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *OpsStore) CreateRun(run *models.IngestRun) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO ingest_runs (start_date, end_date, started_at, status,
			auctions_found, lots_found, imported, skipped, discarded)
		VALUES (?, ?, ?, ?, 0, 0, 0, 0, 0)`,
		run.StartDate, run.EndDate, run.StartedAt, run.Status)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *OpsStore) UpdateRun(run *models.IngestRun) error {
	_, err := s.db.Exec(`
		UPDATE ingest_runs SET finished_at = ?, status = ?, auctions_found = ?,
			lots_found = ?, imported = ?, skipped = ?, discarded = ?, message = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.AuctionsFound, run.LotsFound,
		run.Imported, run.Skipped, run.Discarded, run.Message, run.ID)
	return err
}

func (s *OpsStore) Log(runID *int64, level models.LogLevel, message string) error {
	_, err := s.db.Exec(`
		INSERT INTO run_logs (run_id, timestamp, level, message)
		VALUES (?, ?, ?, ?)`,
		runID, time.Now(), level, message)
	return err
}

// BackupRow stores a local copy of a row pushed to the record store.
func (s *OpsStore) BackupRow(fingerprint, sheet string, row map[string]string, runID *int64) error {
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO record_backup (fingerprint, sheet, row, run_id)
		VALUES (?, ?, ?, ?)`,
		fingerprint, sheet, data, runID)
	return err
}

// SeenFingerprint reports whether a row with this fingerprint was already
// pushed in any prior run.
func (s *OpsStore) SeenFingerprint(fingerprint string) (bool, error) {
	var exists int
	err := s.db.QueryRow(`
		SELECT 1 FROM record_backup WHERE fingerprint = ? LIMIT 1`, fingerprint).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (s *OpsStore) GetLastRunTime() (time.Time, error) {
	var lastRun time.Time
	err := s.db.QueryRow(`
		SELECT started_at FROM ingest_runs WHERE status = 'completed'
		ORDER BY started_at DESC LIMIT 1`).Scan(&lastRun)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	return lastRun, err
}
