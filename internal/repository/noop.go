package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/docpipe/docpipe/constants"
	"github.com/docpipe/docpipe/internal/common"
)

// nopRepo satisfies ProcessingRecordRepository without any storage.
// Used when no DSN is configured; the pipeline must not depend on the
// record store being available.
type nopRepo struct {
	log *slog.Logger
}

func NewNopRecordRepository(log *slog.Logger) ProcessingRecordRepository {
	if log == nil {
		log = slog.Default()
	}
	return &nopRepo{log: log}
}

func (r *nopRepo) Create(_ context.Context, info FileInfo) (uuid.UUID, error) {
	id := uuid.New()
	r.log.Debug("processing_record create (nop)", "record_id", id, "filename", info.Filename)
	return id, nil
}

func (r *nopRepo) UpdateStatus(_ context.Context, id uuid.UUID, status constants.RecordStatus, _ string) error {
	r.log.Debug("processing_record update (nop)", "record_id", id, "status", status)
	return nil
}

func (r *nopRepo) GetByID(_ context.Context, id uuid.UUID) (*ProcessingRecord, error) {
	return nil, fmt.Errorf("record %s: %w", id, common.ErrNotFound)
}

func (r *nopRepo) ListRecent(context.Context, int) ([]ProcessingRecord, error) {
	return nil, nil
}
