package asset

import (
	"context"
	"io"
	"time"
)

// JobStore persists job and asset metadata.
type JobStore interface {
	CreateJob(ctx context.Context, job Job) error
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errText string, counters JobCounters) error
	RecordAsset(ctx context.Context, record AssetRecord) error
	GetJob(ctx context.Context, jobID string) (Job, error)
	ListAssets(ctx context.Context, jobID string) ([]AssetRecord, error)
}

// BlobStore archives raw fetched documents and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher pushes extraction-complete events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Fetcher fetches a URL and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// RenderDetector decides whether a rendered (headless) fetch is warranted.
type RenderDetector interface {
	ShouldPromote(probe FetchResponse) bool
}

// Queue provides enqueue/dequeue semantics for extraction jobs.
type Queue interface {
	Enqueue(ctx context.Context, item QueueItem) error
	Dequeue(ctx context.Context) (QueueItem, error)
}

// RateLimiter throttles outbound fetches per target domain.
type RateLimiter interface {
	Wait(ctx context.Context, url string) error
}

// Hasher computes digests for deduplication/integrity.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces job IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}

// SearchProvider is the thin web-search collaborator.
type SearchProvider interface {
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
}

// StatsProvider is the thin statistics-agency collaborator.
type StatsProvider interface {
	ListDataflows(ctx context.Context, keyword string) ([]Dataflow, error)
	GetData(ctx context.Context, dataflowID string, format string) ([]byte, error)
}
