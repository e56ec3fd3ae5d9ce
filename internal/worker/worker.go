// Package worker implements the extraction pipeline execution loop.
package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/datalode/assetscout/internal/asset"
	"github.com/datalode/assetscout/internal/extract"
	"github.com/datalode/assetscout/internal/metrics"
)

// Config controls Worker behavior.
type Config struct {
	BlobPrefix string
	Topic      string
}

// Worker consumes queue items and executes the fetch-extract pipeline.
type Worker struct {
	queue         asset.Queue
	jobStore      asset.JobStore
	blobStore     asset.BlobStore
	publisher     asset.Publisher
	hasher        asset.Hasher
	clock         asset.Clock
	probeFetcher  asset.Fetcher
	renderFetcher asset.Fetcher
	detector      asset.RenderDetector
	limiter       asset.RateLimiter
	pipeline      *extract.Pipeline
	cfg           Config
	logger        *zap.Logger
}

// New constructs a Worker.
func New(
	queue asset.Queue,
	jobStore asset.JobStore,
	blobStore asset.BlobStore,
	publisher asset.Publisher,
	hasher asset.Hasher,
	clock asset.Clock,
	probe asset.Fetcher,
	renderer asset.Fetcher,
	detector asset.RenderDetector,
	limiter asset.RateLimiter,
	pipeline *extract.Pipeline,
	cfg Config,
	logger *zap.Logger,
) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		queue:         queue,
		jobStore:      jobStore,
		blobStore:     blobStore,
		publisher:     publisher,
		hasher:        hasher,
		clock:         clock,
		probeFetcher:  probe,
		renderFetcher: renderer,
		detector:      detector,
		limiter:       limiter,
		pipeline:      pipeline,
		cfg:           cfg,
		logger:        logger,
	}
}

// Run blocks, consuming queue items until the context finishes.
func (w *Worker) Run(ctx context.Context) {
	for {
		item, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("queue dequeue failed", zap.Error(err))
			continue
		}
		w.logger.Debug("dequeued job", zap.String("job_id", item.JobID))
		w.processJob(ctx, item)
	}
}

func (w *Worker) processJob(ctx context.Context, item asset.QueueItem) {
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()

	counters := asset.JobCounters{}
	errText := ""

	if err := w.jobStore.UpdateJobStatus(ctx, item.JobID, asset.JobStatusRunning, "", counters); err != nil {
		w.logger.Error("update job status failed", zap.String("job_id", item.JobID), zap.Error(err))
		return
	}

	for _, url := range item.Params.URLs {
		if ctx.Err() != nil {
			break
		}
		if err := w.handleURL(ctx, item, url, &counters); err != nil {
			errText = err.Error()
		}
	}

	status, errText := w.deriveFinalStatus(ctx, counters, errText)

	if err := w.jobStore.UpdateJobStatus(ctx, item.JobID, status, errText, counters); err != nil {
		w.logger.Error("final job status update failed", zap.String("job_id", item.JobID), zap.Error(err))
		return
	}
	metrics.ObserveJob(string(status))
}

// handleURL processes a single URL end to end. Extraction is total: a failed
// fetch still yields a defaulted record, so the only errors returned here are
// persistence failures.
func (w *Worker) handleURL(
	ctx context.Context,
	item asset.QueueItem,
	url string,
	counters *asset.JobCounters,
) error {
	if w.limiter != nil {
		if err := w.limiter.Wait(ctx, url); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	title := item.Params.Titles[url]

	resp, err := w.fetchProbe(ctx, item, url)
	if err != nil {
		w.logger.Warn("fetch failed, recording defaulted asset",
			zap.String("job_id", item.JobID), zap.String("url", url), zap.Error(err))
		counters.AssetsDefaulted++
		metrics.ObserveAsset(url, "defaulted", 0)
		return w.recordDefaulted(ctx, item.JobID, url, err)
	}

	if promotedResp, promoted := w.maybePromote(ctx, item, url, resp); promoted {
		resp = promotedResp
		metrics.ObserveRenderPromotion()
		w.logger.Info("render promotion applied", zap.String("job_id", item.JobID), zap.String("url", url))
	}

	result := w.pipeline.Run(asset.RawDocument{
		URL:  resp.URL,
		Body: resp.Body,
		Kind: resp.Kind,
	}, title)

	if err := w.persistAndPublish(ctx, item.JobID, resp, result); err != nil {
		w.logger.Error("persist asset failed", zap.String("job_id", item.JobID), zap.String("url", url), zap.Error(err))
		return err
	}

	counters.AssetsExtracted++
	metrics.ObserveAsset(url, "extracted", len(resp.Body))
	metrics.ObserveQualityScore(url, result.ContentAnalysis.QualityScore)
	w.logger.Debug("asset processed", zap.String("job_id", item.JobID), zap.String("url", url))
	return nil
}

func (w *Worker) fetchProbe(ctx context.Context, item asset.QueueItem, url string) (asset.FetchResponse, error) {
	pageCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	resp, err := w.probeFetcher.Fetch(pageCtx, asset.FetchRequest{
		JobID: item.JobID,
		URL:   url,
	})
	if err != nil {
		return asset.FetchResponse{}, fmt.Errorf("probe fetch: %w", err)
	}
	return resp, nil
}

func (w *Worker) maybePromote(
	ctx context.Context,
	item asset.QueueItem,
	url string,
	resp asset.FetchResponse,
) (asset.FetchResponse, bool) {
	if !item.Params.RenderAllowed || w.detector == nil || w.renderFetcher == nil {
		return resp, false
	}
	if !w.detector.ShouldPromote(resp) {
		return resp, false
	}

	renderCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	rendered, err := w.renderFetcher.Fetch(renderCtx, asset.FetchRequest{
		JobID:       item.JobID,
		URL:         url,
		UseRenderer: true,
	})
	if err != nil {
		w.logger.Warn("render promotion failed, using probe response",
			zap.String("job_id", item.JobID), zap.String("url", url), zap.Error(err))
		return resp, false
	}
	rendered.UsedRenderer = true
	return rendered, true
}

// recordDefaulted persists a fully-defaulted record for an unreachable URL.
func (w *Worker) recordDefaulted(ctx context.Context, jobID, url string, fetchErr error) error {
	statusCode := 0
	var fe *asset.FetchError
	if errors.As(fetchErr, &fe) {
		statusCode = fe.StatusCode
	}

	record := asset.AssetRecord{
		JobID:      jobID,
		URL:        url,
		StatusCode: statusCode,
		FetchedAt:  w.clock.Now(),
		Result:     w.pipeline.Defaulted(url),
	}
	if err := w.jobStore.RecordAsset(ctx, record); err != nil {
		return fmt.Errorf("record defaulted asset: %w", err)
	}
	return w.publishResult(ctx, record)
}

func (w *Worker) persistAndPublish(
	ctx context.Context,
	jobID string,
	resp asset.FetchResponse,
	result asset.ExtractionResult,
) error {
	hash, err := w.hasher.Hash(resp.Body)
	if err != nil {
		return fmt.Errorf("hash body: %w", err)
	}

	blobPath := w.buildBlobPath(jobID, hash, resp.Kind)
	uri, err := w.blobStore.PutObject(ctx, blobPath, contentTypeFor(resp.Kind), bytes.NewReader(resp.Body))
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}

	record := asset.AssetRecord{
		JobID:        jobID,
		URL:          resp.URL,
		StatusCode:   resp.StatusCode,
		UsedRenderer: resp.UsedRenderer,
		FetchedAt:    w.clock.Now(),
		DurationMs:   resp.Duration.Milliseconds(),
		ContentHash:  hash,
		BlobURI:      uri,
		Result:       result,
	}
	if err := w.jobStore.RecordAsset(ctx, record); err != nil {
		return fmt.Errorf("record asset: %w", err)
	}

	return w.publishResult(ctx, record)
}

func (w *Worker) publishResult(ctx context.Context, record asset.AssetRecord) error {
	if w.cfg.Topic == "" || w.publisher == nil {
		return nil
	}
	payload := map[string]any{
		"job_id":        record.JobID,
		"url":           record.URL,
		"blob_uri":      record.BlobURI,
		"hash":          record.ContentHash,
		"timestamp":     w.clock.Now().Format(time.RFC3339),
		"status":        record.StatusCode,
		"rendered":      record.UsedRenderer,
		"quality_score": record.Result.ContentAnalysis.QualityScore,
	}
	if _, err := w.publisher.Publish(ctx, w.cfg.Topic, payload); err != nil {
		return fmt.Errorf("publish payload: %w", err)
	}
	w.logger.Info("asset published",
		zap.String("job_id", record.JobID),
		zap.String("url", record.URL),
		zap.String("blob_uri", record.BlobURI),
		zap.Int("quality_score", record.Result.ContentAnalysis.QualityScore),
	)
	return nil
}

func (w *Worker) buildBlobPath(jobID, hash string, kind asset.ContentKind) string {
	ext := "html"
	switch kind {
	case asset.KindCSV:
		ext = "csv"
	case asset.KindJSON:
		ext = "json"
	}
	prefix := strings.Trim(w.cfg.BlobPrefix, "/")
	if prefix == "" {
		return fmt.Sprintf("%s/%s.%s", jobID, hash, ext)
	}
	return fmt.Sprintf("%s/%s/%s.%s", prefix, jobID, hash, ext)
}

func contentTypeFor(kind asset.ContentKind) string {
	switch kind {
	case asset.KindCSV:
		return "text/csv; charset=utf-8"
	case asset.KindJSON:
		return "application/json"
	default:
		return "text/html; charset=utf-8"
	}
}

// deriveFinalStatus folds the per-URL outcomes into a job status. A job with
// only defaulted assets still succeeds; failure means nothing could be
// recorded at all.
func (w *Worker) deriveFinalStatus(
	ctx context.Context,
	counters asset.JobCounters,
	errText string,
) (asset.JobStatus, string) {
	processed := counters.AssetsExtracted + counters.AssetsDefaulted
	if processed == 0 && errText == "" {
		errText = "no assets were processed"
	}

	switch {
	case ctx.Err() != nil:
		return asset.JobStatusCanceled, errText
	case processed == 0:
		return asset.JobStatusFailed, errText
	default:
		return asset.JobStatusSucceeded, errText
	}
}
