package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/docpipe/docpipe/constants"
	"github.com/docpipe/docpipe/internal/common"
)

// FileInfo is the bookkeeping snapshot captured when processing starts.
type FileInfo struct {
	Filename string
	FileSize int64
}

// ProcessingRecord is one row of pipeline bookkeeping.
type ProcessingRecord struct {
	ID           uuid.UUID
	Filename     string
	FileSize     int64
	Status       constants.RecordStatus
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProcessingRecordRepository tracks per-file processing lifecycles.
// Repository failures must never block the pipeline; callers log and
// continue.
type ProcessingRecordRepository interface {
	Create(ctx context.Context, info FileInfo) (uuid.UUID, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status constants.RecordStatus, errorMessage string) error
	GetByID(ctx context.Context, id uuid.UUID) (*ProcessingRecord, error)
	ListRecent(ctx context.Context, limit int) ([]ProcessingRecord, error)
}

type recordRepo struct {
	db       *sql.DB
	postgres bool
	log      *slog.Logger
}

func NewProcessingRecordRepository(db *sql.DB, postgres bool, log *slog.Logger) ProcessingRecordRepository {
	if log == nil {
		log = slog.Default()
	}
	return &recordRepo{db: db, postgres: postgres, log: log}
}

func (r *recordRepo) Create(ctx context.Context, info FileInfo) (uuid.UUID, error) {
	id := uuid.New()
	now := time.Now().UTC()
	q := bind(r.postgres, `INSERT INTO processing_record
		(id, filename, file_size, status, error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, '', ?, ?)`)
	if _, err := r.db.ExecContext(ctx, q,
		id.String(), info.Filename, info.FileSize,
		string(constants.RecordStatusProcessing), now, now,
	); err != nil {
		r.log.Error("processing_record create failed", "filename", info.Filename, "err", err)
		return uuid.Nil, common.WrapError(err, "create processing record")
	}
	r.log.Info("processing_record created", "record_id", id, "filename", info.Filename, "file_size", info.FileSize)
	return id, nil
}

func (r *recordRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status constants.RecordStatus, errorMessage string) error {
	q := bind(r.postgres, `UPDATE processing_record
		SET status = ?, error_message = ?, updated_at = ?
		WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, q, string(status), errorMessage, time.Now().UTC(), id.String())
	if err != nil {
		r.log.Error("processing_record update failed", "record_id", id, "status", status, "err", err)
		return common.WrapError(err, "update processing record")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("record %s: %w", id, common.ErrNotFound)
	}
	r.log.Info("processing_record updated", "record_id", id, "status", status)
	return nil
}

func (r *recordRepo) GetByID(ctx context.Context, id uuid.UUID) (*ProcessingRecord, error) {
	q := bind(r.postgres, `SELECT id, filename, file_size, status, error_message, created_at, updated_at
		FROM processing_record WHERE id = ?`)
	row := r.db.QueryRowContext(ctx, q, id.String())
	rec, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, common.WrapError(err, "get processing record")
	}
	return rec, nil
}

func (r *recordRepo) ListRecent(ctx context.Context, limit int) ([]ProcessingRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	q := bind(r.postgres, `SELECT id, filename, file_size, status, error_message, created_at, updated_at
		FROM processing_record ORDER BY created_at DESC LIMIT ?`)
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, common.WrapError(err, "list processing records")
	}
	defer rows.Close()

	var out []ProcessingRecord
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, common.WrapError(err, "scan processing record")
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func scanRecord(scan func(dest ...any) error) (*ProcessingRecord, error) {
	var (
		rec    ProcessingRecord
		rawID  string
		status string
	)
	if err := scan(&rawID, &rec.Filename, &rec.FileSize, &status, &rec.ErrorMessage, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse record id %q: %w", rawID, err)
	}
	rec.ID = id
	rec.Status = constants.RecordStatus(status)
	return &rec, nil
}
