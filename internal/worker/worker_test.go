package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/datalode/assetscout/internal/asset"
	"github.com/datalode/assetscout/internal/extract"
	"github.com/datalode/assetscout/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Init()
	m.Run()
}

func testPipeline() *extract.Pipeline {
	return extract.New(extract.Config{}, &fakeClock{now: time.Unix(100, 0).UTC()}, nil)
}

func TestWorker_ProcessJob_SuccessFlow(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := &fakeQueue{
		items: []asset.QueueItem{{
			JobID: "job-success",
			Params: asset.JobParameters{
				URLs:   []string{"https://example.com"},
				Titles: map[string]string{"https://example.com": "Hospital admissions 2024"},
			},
		}},
	}
	jobStore := newFakeJobStore()
	blobStore := newFakeBlobStore()
	publisher := newFakePublisher()
	hasher := &fakeHasher{hash: "abc123"}
	clock := &fakeClock{now: time.Unix(100, 0).UTC()}
	fetcher := &fakeFetcher{
		responses: map[string]asset.FetchResponse{
			"https://example.com": {
				URL:        "https://example.com",
				StatusCode: http.StatusOK,
				Body:       []byte("<html><head><meta name=\"description\" content=\"admissions data\"></head><body>ok</body></html>"),
				Kind:       asset.KindHTML,
				Duration:   10 * time.Millisecond,
			},
		},
	}

	w := New(
		queue,
		jobStore,
		blobStore,
		publisher,
		hasher,
		clock,
		fetcher,
		nil,
		nil,
		nil,
		testPipeline(),
		Config{
			BlobPrefix: "assets",
			Topic:      "extractions",
		},
		zap.NewNop(),
	)

	go w.Run(ctx)

	require.Eventually(t, func() bool {
		return jobStore.lastStatus() == asset.JobStatusSucceeded
	}, time.Second, 10*time.Millisecond)

	require.Len(t, jobStore.records, 1)
	record := jobStore.records[0]
	require.Equal(t, "admissions data", record.Result.Description)
	require.Contains(t, record.Result.ContentAnalysis.KeyTopics, "Health & Medicine")
	require.Equal(t, "assets/job-success/abc123.html", blobStore.lastPath)
	require.Len(t, publisher.messages, 1)
	require.Equal(t, asset.JobCounters{AssetsExtracted: 1}, jobStore.lastCounters())
	cancel()
}

func TestWorker_ProcessJob_FetchFailureRecordsDefaulted(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := &fakeQueue{
		items: []asset.QueueItem{{
			JobID: "job-defaulted",
			Params: asset.JobParameters{
				URLs: []string{"https://unreachable.example.com"},
			},
		}},
	}
	jobStore := newFakeJobStore()
	blobStore := newFakeBlobStore()
	publisher := newFakePublisher()
	fetcher := &fakeFetcher{
		errors: map[string]error{
			"https://unreachable.example.com": &asset.FetchError{StatusCode: 503, Message: "unavailable"},
		},
	}

	w := New(
		queue,
		jobStore,
		blobStore,
		publisher,
		&fakeHasher{},
		&fakeClock{now: time.Unix(200, 0).UTC()},
		fetcher,
		nil,
		nil,
		nil,
		testPipeline(),
		Config{Topic: "extractions"},
		zap.NewNop(),
	)

	go w.Run(ctx)

	require.Eventually(t, func() bool {
		return jobStore.lastStatus() == asset.JobStatusSucceeded
	}, time.Second, 10*time.Millisecond)

	require.Equal(t, asset.JobCounters{AssetsDefaulted: 1}, jobStore.lastCounters())
	require.Len(t, jobStore.records, 1)
	record := jobStore.records[0]
	require.Equal(t, 503, record.StatusCode)
	require.Equal(t, "No description available", record.Result.Description)
	require.Equal(t, []string{"Information"}, record.Result.ContentAnalysis.KeyTopics)
	// Nothing was fetched, so nothing is archived.
	require.Empty(t, blobStore.lastPath)
	cancel()
}

func TestWorker_ProcessJob_PublishFailureMarksJobFailed(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := &fakeQueue{
		items: []asset.QueueItem{{
			JobID: "job-publish-fail",
			Params: asset.JobParameters{
				URLs: []string{"https://example.com"},
			},
		}},
	}
	jobStore := newFakeJobStore()
	publisher := newFakePublisher()
	publisher.err = errors.New("pub failure")
	fetcher := &fakeFetcher{
		responses: map[string]asset.FetchResponse{
			"https://example.com": {
				URL:        "https://example.com",
				StatusCode: http.StatusOK,
				Body:       []byte("<html>ok</html>"),
				Kind:       asset.KindHTML,
			},
		},
	}

	w := New(
		queue,
		jobStore,
		newFakeBlobStore(),
		publisher,
		&fakeHasher{hash: "deadbeef"},
		&fakeClock{now: time.Unix(200, 0).UTC()},
		fetcher,
		nil,
		nil,
		nil,
		testPipeline(),
		Config{Topic: "extractions"},
		zap.NewNop(),
	)

	go w.Run(ctx)

	require.Eventually(t, func() bool {
		return jobStore.lastStatus() == asset.JobStatusFailed
	}, time.Second, 10*time.Millisecond)

	require.Zero(t, len(publisher.messages))
	cancel()
}

func TestWorker_ProcessJob_RenderPromotionApplied(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := &fakeQueue{
		items: []asset.QueueItem{{
			JobID: "job-render",
			Params: asset.JobParameters{
				URLs:          []string{"https://example.com"},
				RenderAllowed: true,
			},
		}},
	}
	jobStore := newFakeJobStore()
	probeFetcher := &fakeFetcher{
		responses: map[string]asset.FetchResponse{
			"https://example.com": {
				URL:        "https://example.com",
				StatusCode: http.StatusOK,
				Body:       []byte(`<div id="root"></div>`),
				Kind:       asset.KindHTML,
			},
		},
	}
	renderFetcher := &fakeFetcher{
		responses: map[string]asset.FetchResponse{
			"https://example.com": {
				URL:          "https://example.com/rendered",
				StatusCode:   http.StatusOK,
				Body:         []byte("<html><body><main>rendered census content</main></body></html>"),
				Kind:         asset.KindHTML,
				Duration:     20 * time.Millisecond,
				UsedRenderer: true,
			},
		},
	}
	detector := &fakeDetector{promotions: map[string]bool{"https://example.com": true}}

	w := New(
		queue,
		jobStore,
		newFakeBlobStore(),
		newFakePublisher(),
		&fakeHasher{hash: "beadfeed"},
		&fakeClock{now: time.Unix(300, 0).UTC()},
		probeFetcher,
		renderFetcher,
		detector,
		nil,
		testPipeline(),
		Config{Topic: "extractions"},
		zap.NewNop(),
	)

	go w.Run(ctx)

	require.Eventually(t, func() bool {
		return jobStore.lastStatus() == asset.JobStatusSucceeded
	}, time.Second, 10*time.Millisecond)

	require.Len(t, jobStore.records, 1)
	require.True(t, jobStore.records[0].UsedRenderer)
	require.Equal(t, "https://example.com/rendered", jobStore.records[0].URL)
	cancel()
}

func TestWorker_ProcessJob_RateLimiterConsulted(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := &fakeQueue{
		items: []asset.QueueItem{{
			JobID: "job-limited",
			Params: asset.JobParameters{
				URLs: []string{"https://a.example.com", "https://b.example.com"},
			},
		}},
	}
	jobStore := newFakeJobStore()
	limiter := &fakeLimiter{}
	fetcher := &fakeFetcher{
		responses: map[string]asset.FetchResponse{
			"https://a.example.com": {URL: "https://a.example.com", StatusCode: 200, Body: []byte("<html>a</html>"), Kind: asset.KindHTML},
			"https://b.example.com": {URL: "https://b.example.com", StatusCode: 200, Body: []byte("<html>b</html>"), Kind: asset.KindHTML},
		},
	}

	w := New(
		queue,
		jobStore,
		newFakeBlobStore(),
		newFakePublisher(),
		&fakeHasher{},
		&fakeClock{now: time.Unix(400, 0).UTC()},
		fetcher,
		nil,
		nil,
		limiter,
		testPipeline(),
		Config{},
		zap.NewNop(),
	)

	go w.Run(ctx)

	require.Eventually(t, func() bool {
		return jobStore.lastStatus() == asset.JobStatusSucceeded
	}, time.Second, 10*time.Millisecond)

	require.Equal(t, 2, limiter.calls())
	cancel()
}

func TestWorkerBuildBlobPath(t *testing.T) {
	t.Parallel()

	w := New(nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, testPipeline(), Config{BlobPrefix: "/assets/"}, zap.NewNop())
	if got := w.buildBlobPath("job", "hash", asset.KindHTML); got != "assets/job/hash.html" {
		t.Fatalf("unexpected blob path: %s", got)
	}
	if got := w.buildBlobPath("job", "hash", asset.KindCSV); got != "assets/job/hash.csv" {
		t.Fatalf("unexpected csv blob path: %s", got)
	}
	w.cfg.BlobPrefix = ""
	if got := w.buildBlobPath("job", "hash", asset.KindJSON); got != "job/hash.json" {
		t.Fatalf("unexpected fallback blob path: %s", got)
	}
}

// --- fakes ---

type fakeQueue struct {
	mu    sync.Mutex
	items []asset.QueueItem
}

func (q *fakeQueue) Enqueue(_ context.Context, job asset.QueueItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, job)
	return nil
}

func (q *fakeQueue) Dequeue(ctx context.Context) (asset.QueueItem, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return item, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return asset.QueueItem{}, fmt.Errorf("queue dequeue context done: %w", ctx.Err())
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

type fakeJobStore struct {
	mu       sync.Mutex
	statuses []statusUpdate
	records  []asset.AssetRecord
}

type statusUpdate struct {
	status   asset.JobStatus
	errText  string
	counters asset.JobCounters
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{}
}

func (f *fakeJobStore) CreateJob(context.Context, asset.Job) error {
	return nil
}

func (f *fakeJobStore) UpdateJobStatus(
	_ context.Context,
	_ string,
	status asset.JobStatus,
	errText string,
	counters asset.JobCounters,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, statusUpdate{status: status, errText: errText, counters: counters})
	return nil
}

func (f *fakeJobStore) RecordAsset(_ context.Context, record asset.AssetRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	return nil
}

func (f *fakeJobStore) GetJob(context.Context, string) (asset.Job, error) {
	return asset.Job{}, nil
}

func (f *fakeJobStore) ListAssets(context.Context, string) ([]asset.AssetRecord, error) {
	return nil, nil
}

func (f *fakeJobStore) lastStatus() asset.JobStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statuses) == 0 {
		return ""
	}
	return f.statuses[len(f.statuses)-1].status
}

func (f *fakeJobStore) lastCounters() asset.JobCounters {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statuses) == 0 {
		return asset.JobCounters{}
	}
	return f.statuses[len(f.statuses)-1].counters
}

type fakeBlobStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	lastPath string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (b *fakeBlobStore) PutObject(_ context.Context, path string, _ string, data io.Reader) (string, error) {
	byteData, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[path] = byteData
	b.lastPath = path
	return "memory://" + path, nil
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []map[string]any
	err      error
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{}
}

func (p *fakePublisher) Publish(_ context.Context, _ string, payload any) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := payload.(map[string]any); ok {
		p.messages = append(p.messages, m)
	}
	return "msgid", nil
}

type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]asset.FetchResponse
	errors    map[string]error
}

func (f *fakeFetcher) Fetch(_ context.Context, req asset.FetchRequest) (asset.FetchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errors[req.URL]; ok {
		return asset.FetchResponse{}, err
	}
	if resp, ok := f.responses[req.URL]; ok {
		return resp, nil
	}
	return asset.FetchResponse{}, errors.New("not found")
}

type fakeDetector struct {
	promotions map[string]bool
}

func (d *fakeDetector) ShouldPromote(resp asset.FetchResponse) bool {
	return d.promotions[resp.URL]
}

type fakeHasher struct {
	hash string
	err  error
}

func (h *fakeHasher) Hash(data []byte) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	if h.hash != "" {
		return h.hash, nil
	}
	return string(data), nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

type fakeLimiter struct {
	mu sync.Mutex
	n  int
}

func (l *fakeLimiter) Wait(context.Context, string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.n++
	return nil
}

func (l *fakeLimiter) calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n
}
