// Package archive decorates a JobStore with write-through persistence of
// asset records to a durable backend.
package archive

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/datalode/assetscout/internal/asset"
)

// Archiver persists asset records durably (e.g. Postgres).
type Archiver interface {
	StoreAsset(ctx context.Context, record asset.AssetRecord) error
}

// JobStore forwards every call to the wrapped store and mirrors recorded
// assets to the archiver. Archival is best-effort: failures are logged and
// do not fail the job.
type JobStore struct {
	inner    asset.JobStore
	archiver Archiver
	logger   *zap.Logger
}

// Wrap decorates inner with write-through archival.
func Wrap(inner asset.JobStore, archiver Archiver, logger *zap.Logger) (*JobStore, error) {
	if inner == nil {
		return nil, fmt.Errorf("inner job store is required")
	}
	if archiver == nil {
		return nil, fmt.Errorf("archiver is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobStore{inner: inner, archiver: archiver, logger: logger}, nil
}

func (s *JobStore) CreateJob(ctx context.Context, job asset.Job) error {
	return s.inner.CreateJob(ctx, job)
}

func (s *JobStore) UpdateJobStatus(
	ctx context.Context,
	jobID string,
	status asset.JobStatus,
	errText string,
	counters asset.JobCounters,
) error {
	return s.inner.UpdateJobStatus(ctx, jobID, status, errText, counters)
}

func (s *JobStore) RecordAsset(ctx context.Context, record asset.AssetRecord) error {
	if err := s.inner.RecordAsset(ctx, record); err != nil {
		return err
	}
	if err := s.archiver.StoreAsset(ctx, record); err != nil {
		s.logger.Warn("asset archival failed",
			zap.String("job_id", record.JobID),
			zap.String("url", record.URL),
			zap.Error(err),
		)
	}
	return nil
}

func (s *JobStore) GetJob(ctx context.Context, jobID string) (asset.Job, error) {
	return s.inner.GetJob(ctx, jobID)
}

func (s *JobStore) ListAssets(ctx context.Context, jobID string) ([]asset.AssetRecord, error) {
	return s.inner.ListAssets(ctx, jobID)
}
