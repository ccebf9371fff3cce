package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// LedgerEntry is one processed-result audit row.
type LedgerEntry struct {
	JobID             string    `json:"job_id"`
	Email             string    `json:"email"`
	Question          string    `json:"question"`
	MediaURL          string    `json:"media_url"`
	QualityRating     string    `json:"quality_rating"`
	OverallConfidence float64   `json:"overall_confidence"`
	WordCount         int       `json:"word_count"`
	StoredAt          time.Time `json:"stored_at"`
}

// Ledger records every processed result in a local SQLite database. It is an
// audit trail only; nothing in the pipeline reads it to make decisions.
type Ledger struct {
	db *sql.DB
}

// NewLedger opens the ledger database, creating the schema if needed.
func NewLedger(dbPath string) (*Ledger, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL,
		question TEXT NOT NULL,
		media_url TEXT,
		quality_rating TEXT,
		overall_confidence REAL,
		word_count INTEGER,
		stored_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_stored_at ON results(stored_at);
	CREATE INDEX IF NOT EXISTS idx_email ON results(email);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create table: %v", err)
	}

	return &Ledger{db: db}, nil
}

// Record inserts a processed result. A replayed callback for the same job
// replaces the earlier row.
func (l *Ledger) Record(entry LedgerEntry) error {
	query := `
	INSERT OR REPLACE INTO results (job_id, email, question, media_url, quality_rating, overall_confidence, word_count, stored_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := l.db.Exec(query, entry.JobID, entry.Email, entry.Question, entry.MediaURL,
		entry.QualityRating, entry.OverallConfidence, entry.WordCount, entry.StoredAt)
	if err != nil {
		return fmt.Errorf("failed to record result: %v", err)
	}

	return nil
}

// Get retrieves one result by job ID.
func (l *Ledger) Get(jobID string) (*LedgerEntry, error) {
	query := `
	SELECT job_id, email, question, media_url, quality_rating, overall_confidence, word_count, stored_at
	FROM results WHERE job_id = ?
	`

	var entry LedgerEntry
	err := l.db.QueryRow(query, jobID).Scan(&entry.JobID, &entry.Email, &entry.Question,
		&entry.MediaURL, &entry.QualityRating, &entry.OverallConfidence, &entry.WordCount, &entry.StoredAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %v", err)
	}

	return &entry, nil
}

// Recent returns the newest results, most recent first.
func (l *Ledger) Recent(limit int) ([]LedgerEntry, error) {
	query := `
	SELECT job_id, email, question, media_url, quality_rating, overall_confidence, word_count, stored_at
	FROM results ORDER BY stored_at DESC LIMIT ?
	`

	rows, err := l.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %v", err)
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var entry LedgerEntry
		if err := rows.Scan(&entry.JobID, &entry.Email, &entry.Question, &entry.MediaURL,
			&entry.QualityRating, &entry.OverallConfidence, &entry.WordCount, &entry.StoredAt); err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// PruneOlderThan deletes results stored before the cutoff and reports how
// many rows were removed.
func (l *Ledger) PruneOlderThan(age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)
	res, err := l.db.Exec(`DELETE FROM results WHERE stored_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune results: %v", err)
	}
	return res.RowsAffected()
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}
