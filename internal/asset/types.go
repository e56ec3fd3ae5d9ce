// Package asset defines core types shared across subsystems.
package asset

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ContentKind classifies fetched content by URL suffix.
type ContentKind string

// Content kinds recognized by the fetcher.
const (
	KindHTML ContentKind = "html"
	KindCSV  ContentKind = "csv"
	KindJSON ContentKind = "json"
)

// RawDocument is fetched content prior to parsing. It exists only for the
// duration of a single extraction call.
type RawDocument struct {
	URL  string
	Body []byte
	Kind ContentKind
}

// FetchError reports a network or HTTP failure retrieving a source URL.
// Callers substitute a defaulted ExtractionResult rather than surfacing it.
type FetchError struct {
	StatusCode int
	Message    string
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch failed: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("fetch failed: %s", e.Message)
}

// ExtractionResult is the data asset record produced by the pipeline.
// Every field carries a deterministic default; the record is total and
// immutable once assembled.
type ExtractionResult struct {
	Description     string          `json:"description"`
	CollectionDate  string          `json:"collectionDate"`
	Purpose         string          `json:"purpose"`
	Department      string          `json:"department"`
	Metadata        AssetMetadata   `json:"metadata"`
	Availability    Availability    `json:"availability"`
	Relationships   Relationships   `json:"relationships"`
	ContentAnalysis ContentAnalysis `json:"contentAnalysis"`
}

// AssetMetadata carries descriptive facts about the underlying data.
type AssetMetadata struct {
	Format      string   `json:"format"`
	Size        string   `json:"size"`
	Records     int      `json:"records"`
	LastUpdated string   `json:"lastUpdated"`
	Version     string   `json:"version"`
	License     string   `json:"license"`
	Tags        []string `json:"tags"`
}

// AvailabilityStatus enumerates how an asset can be obtained.
type AvailabilityStatus string

// Availability statuses.
const (
	AvailabilityPublic          AvailabilityStatus = "public"
	AvailabilityRestricted      AvailabilityStatus = "restricted"
	AvailabilityRequestRequired AvailabilityStatus = "request-required"
)

// Availability describes access conditions for an asset.
type Availability struct {
	Status         AvailabilityStatus `json:"status"`
	Custodian      string             `json:"custodian"`
	ContactEmail   string             `json:"contactEmail"`
	RequestProcess string             `json:"requestProcess"`
}

// Relationships links an asset to neighbouring datasets and series.
type Relationships struct {
	ParentDataset string   `json:"parentDataset"`
	ChildDatasets []string `json:"childDatasets"`
	RelatedSeries []string `json:"relatedSeries"`
	Dependencies  []string `json:"dependencies"`
	DerivedFrom   []string `json:"derivedFrom"`
}

// ContentAnalysis summarizes what the classifier and scorer concluded.
type ContentAnalysis struct {
	Summary         string   `json:"summary"`
	KeyTopics       []string `json:"keyTopics"`
	DataTypes       []string `json:"dataTypes"`
	QualityScore    int      `json:"qualityScore"`
	UpdateFrequency string   `json:"updateFrequency"`
}

// GovernanceProfile is a fixed lookup-table entry attaching canned
// custodianship, access, and relationship facts to a topic domain.
type GovernanceProfile struct {
	Key                string
	Custodian          string
	ContactEmail       string
	IsReadilyAvailable bool
	RequestRequired    bool
	RequestProcess     string
	ParentDataset      string
	RelatedSeries      []string
}

// JobStatus represents the lifecycle state of an extraction job.
type JobStatus string

// Job status values persisted in the job store.
const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCanceled  JobStatus = "canceled"
)

// JobParameters captures per-job knobs requested by the client.
type JobParameters struct {
	URLs          []string          `json:"urls"`
	Titles        map[string]string `json:"titles,omitempty"`
	RenderAllowed bool              `json:"render_allowed" mapstructure:"render_allowed"`
	Tags          map[string]string `json:"tags,omitempty"`
}

// Job is the metadata persisted for each submitted extraction request.
type Job struct {
	ID         string        `json:"id"`
	Status     JobStatus     `json:"status"`
	Submitted  time.Time     `json:"submitted_at"`
	Started    *time.Time    `json:"started_at,omitempty"`
	Finished   *time.Time    `json:"finished_at,omitempty"`
	ErrorText  string        `json:"error_text,omitempty"`
	Parameters JobParameters `json:"parameters"`
	Counters   JobCounters   `json:"counters"`
}

// JobCounters tracks per-job success and failure stats.
type JobCounters struct {
	AssetsExtracted int `json:"assets_extracted"`
	AssetsDefaulted int `json:"assets_defaulted"`
}

// AssetRecord is persisted for each processed URL.
type AssetRecord struct {
	JobID        string           `json:"job_id"`
	URL          string           `json:"url"`
	StatusCode   int              `json:"status_code"`
	UsedRenderer bool             `json:"used_renderer"`
	FetchedAt    time.Time        `json:"fetched_at"`
	DurationMs   int64            `json:"duration_ms"`
	ContentHash  string           `json:"content_hash"`
	BlobURI      string           `json:"blob_uri"`
	Result       ExtractionResult `json:"result"`
}

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	JobID       string
	URL         string
	Headers     http.Header
	UseRenderer bool
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL          string
	StatusCode   int
	Headers      http.Header
	Body         []byte
	Kind         ContentKind
	Duration     time.Duration
	UsedRenderer bool
}

// QueueItem wraps a job ready to run.
type QueueItem struct {
	JobID     string
	Params    JobParameters
	Attempt   int
	Submitted int64
}

// JobResult is returned by the API result endpoint.
type JobResult struct {
	Job    Job           `json:"job"`
	Assets []AssetRecord `json:"assets"`
}

// SearchHit is one result from the web-search collaborator.
type SearchHit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Dataflow identifies a structured statistical series in the agency API.
type Dataflow struct {
	ID          string `json:"id"`
	AgencyID    string `json:"agency_id"`
	Version     string `json:"version"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DiscoveryItem is one entry in the unified discovery list.
type DiscoveryItem struct {
	Source  string `json:"source"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// ClassifyKind maps a URL to a ContentKind by file-extension substring.
func ClassifyKind(url string) ContentKind {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, ".csv"):
		return KindCSV
	case strings.Contains(lower, ".json"):
		return KindJSON
	default:
		return KindHTML
	}
}
