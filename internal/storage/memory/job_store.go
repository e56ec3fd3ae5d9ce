package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/datalode/assetscout/internal/asset"
)

// JobStore provides an in-memory implementation for development/testing.
type JobStore struct {
	mu     sync.RWMutex
	jobs   map[string]asset.Job
	assets map[string][]asset.AssetRecord
}

// NewJobStore constructs a JobStore.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs:   make(map[string]asset.Job),
		assets: make(map[string][]asset.AssetRecord),
	}
}

// CreateJob stores a new job in queued status.
func (s *JobStore) CreateJob(_ context.Context, job asset.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return errors.New("job already exists")
	}
	s.jobs[job.ID] = job
	return nil
}

// UpdateJobStatus updates the status and counters for a job.
func (s *JobStore) UpdateJobStatus(
	_ context.Context,
	jobID string,
	status asset.JobStatus,
	errText string,
	counters asset.JobCounters,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return errors.New("job not found")
	}
	job.Status = status
	job.ErrorText = errText
	job.Counters = counters
	now := time.Now().UTC()
	if status == asset.JobStatusRunning && job.Started == nil {
		job.Started = pointerTime(now)
	}
	if isTerminal(status) {
		job.Finished = pointerTime(now)
	}
	s.jobs[jobID] = job
	return nil
}

// RecordAsset appends an asset row for a job.
func (s *JobStore) RecordAsset(_ context.Context, record asset.AssetRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[record.JobID] = append(s.assets[record.JobID], record)
	return nil
}

// GetJob fetches a job by ID.
func (s *JobStore) GetJob(_ context.Context, jobID string) (asset.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return asset.Job{}, errors.New("job not found")
	}
	return job, nil
}

// ListAssets returns all recorded assets for a job.
func (s *JobStore) ListAssets(_ context.Context, jobID string) ([]asset.AssetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.assets[jobID]
	out := make([]asset.AssetRecord, len(records))
	copy(out, records)
	return out, nil
}

func pointerTime(t time.Time) *time.Time {
	ts := t
	return &ts
}

func isTerminal(status asset.JobStatus) bool {
	switch status {
	case asset.JobStatusSucceeded, asset.JobStatusFailed, asset.JobStatusCanceled:
		return true
	default:
		return false
	}
}
