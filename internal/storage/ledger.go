package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"
)

// DocumentRecord is one row of the processing audit trail.
type DocumentRecord struct {
	ID             int64     `json:"id"`
	DocID          string    `json:"doc_id"`
	FileName       string    `json:"file_name"`
	Operation      string    `json:"operation"`
	Status         string    `json:"status"`
	Error          string    `json:"error,omitempty"`
	ProcessingTime float64   `json:"processing_time"`
	CreatedAt      time.Time `json:"created_at"`
}

const (
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)

// Ledger records processing outcomes for later inspection. It is an audit
// add-on: a nil Ledger is valid and records nothing, and recording errors
// never fail the request that produced them.
type Ledger struct {
	db *sql.DB
}

// NewLedger wraps an opened database.
func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Record appends one row.
func (l *Ledger) Record(ctx context.Context, rec DocumentRecord) {
	if l == nil || l.db == nil {
		return
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO documents (doc_id, file_name, operation, status, error, processing_time, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.DocID, rec.FileName, rec.Operation, rec.Status, rec.Error, rec.ProcessingTime, rec.CreatedAt)
	if err != nil {
		log.Printf("ledger: record document %s: %v", rec.DocID, err)
	}
}

// List returns the most recent rows, newest first.
func (l *Ledger) List(ctx context.Context, limit int) ([]DocumentRecord, error) {
	if l == nil || l.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, doc_id, file_name, operation, status, COALESCE(error, ''), processing_time, created_at
		 FROM documents ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRecord
	for rows.Next() {
		var rec DocumentRecord
		if err := rows.Scan(&rec.ID, &rec.DocID, &rec.FileName, &rec.Operation, &rec.Status,
			&rec.Error, &rec.ProcessingTime, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
