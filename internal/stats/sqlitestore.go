package stats

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rewired-gh/arbscan/internal/logger"
	"github.com/rewired-gh/arbscan/internal/models"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the scan history and totals in a SQLite database. Scan
// records are stored as JSON rows so the persisted shape stays identical to
// the file backend; totals live in a single-row table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at dbPath. An empty dbPath
// defaults to $TMPDIR/arbscan/stats.db.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "arbscan", "stats.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scans (
			id        TEXT PRIMARY KEY,
			timestamp INTEGER NOT NULL,
			record    TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS totals (
			id                  INTEGER PRIMARY KEY CHECK (id = 1),
			total_scans         INTEGER NOT NULL DEFAULT 0,
			total_opportunities INTEGER NOT NULL DEFAULT 0,
			total_alerts        INTEGER NOT NULL DEFAULT 0,
			best                TEXT
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Record appends the scan row, rotates history past the cap, and updates
// the running totals in one transaction.
func (s *SQLiteStore) Record(rec models.ScanRecord) error {
	recordJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal scan record: %w", err)
	}

	snap, err := s.Read()
	if err != nil {
		logger.Warn("Stats totals unreadable, reinitializing: %v", err)
		if _, err := s.db.Exec(`DELETE FROM scans`); err != nil {
			return fmt.Errorf("failed to reset scans: %w", err)
		}
		if _, err := s.db.Exec(`DELETE FROM totals`); err != nil {
			return fmt.Errorf("failed to reset totals: %w", err)
		}
		snap = nil
	}
	if snap == nil {
		snap = &models.StatsSnapshot{}
	}
	apply(snap, rec)

	var bestJSON any
	if snap.Best != nil {
		b, err := json.Marshal(snap.Best)
		if err != nil {
			return fmt.Errorf("failed to marshal best opportunity: %w", err)
		}
		bestJSON = string(b)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(
		`INSERT INTO scans (id, timestamp, record) VALUES (?,?,?)`,
		uuid.New().String(), rec.Timestamp.UnixNano(), string(recordJSON),
	); err != nil {
		return fmt.Errorf("failed to insert scan: %w", err)
	}

	if _, err := tx.Exec(`
		DELETE FROM scans WHERE rowid NOT IN (
			SELECT rowid FROM scans ORDER BY rowid DESC LIMIT ?
		)`, maxHistory); err != nil {
		return fmt.Errorf("failed to rotate scan history: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO totals (id, total_scans, total_opportunities, total_alerts, best)
		VALUES (1,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			total_scans=excluded.total_scans,
			total_opportunities=excluded.total_opportunities,
			total_alerts=excluded.total_alerts,
			best=excluded.best`,
		snap.TotalScans, snap.TotalOpportunities, snap.TotalAlerts, bestJSON,
	); err != nil {
		return fmt.Errorf("failed to update totals: %w", err)
	}

	return tx.Commit()
}

// Read rebuilds the snapshot from the totals row and the stored scan rows,
// oldest first. Returns (nil, nil) when nothing has been recorded.
func (s *SQLiteStore) Read() (*models.StatsSnapshot, error) {
	var snap models.StatsSnapshot
	var bestJSON sql.NullString

	row := s.db.QueryRow(`SELECT total_scans, total_opportunities, total_alerts, best FROM totals WHERE id = 1`)
	err := row.Scan(&snap.TotalScans, &snap.TotalOpportunities, &snap.TotalAlerts, &bestJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read totals: %w", err)
	}
	if bestJSON.Valid {
		var best models.BestOpportunity
		if err := json.Unmarshal([]byte(bestJSON.String), &best); err != nil {
			return nil, fmt.Errorf("failed to parse best opportunity: %w", err)
		}
		snap.Best = &best
	}

	rows, err := s.db.Query(`SELECT record FROM scans ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recordJSON string
		if err := rows.Scan(&recordJSON); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var rec models.ScanRecord
		if err := json.Unmarshal([]byte(recordJSON), &rec); err != nil {
			return nil, fmt.Errorf("failed to parse scan record: %w", err)
		}
		snap.ScanHistory = append(snap.ScanHistory, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if n := len(snap.ScanHistory); n > 0 {
		last := snap.ScanHistory[n-1]
		snap.LastScan = &last
	}
	return &snap, nil
}
