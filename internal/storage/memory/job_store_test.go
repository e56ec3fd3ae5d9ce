package memory

import (
	"context"
	"testing"

	"github.com/datalode/assetscout/internal/asset"
)

func TestJobStoreLifecycle(t *testing.T) {
	t.Parallel()

	store := NewJobStore()
	ctx := context.Background()
	job := asset.Job{ID: "job-1", Status: asset.JobStatusQueued}

	if err := store.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}
	if err := store.CreateJob(ctx, job); err == nil {
		t.Fatal("expected duplicate job error")
	}
	if err := store.UpdateJobStatus(ctx, job.ID, asset.JobStatusRunning, "", asset.JobCounters{}); err != nil {
		t.Fatalf("UpdateJobStatus running error = %v", err)
	}
	record := asset.AssetRecord{JobID: job.ID, URL: "https://example.com"}
	if err := store.RecordAsset(ctx, record); err != nil {
		t.Fatalf("RecordAsset() error = %v", err)
	}
	records, err := store.ListAssets(ctx, job.ID)
	if err != nil || len(records) != 1 {
		t.Fatalf("ListAssets() unexpected result: records=%v err=%v", records, err)
	}
	records[0].URL = "modified"
	if store.assets[job.ID][0].URL != "https://example.com" {
		t.Fatal("expected ListAssets to return a copy")
	}

	err = store.UpdateJobStatus(
		ctx,
		job.ID,
		asset.JobStatusSucceeded,
		"",
		asset.JobCounters{AssetsExtracted: 1},
	)
	if err != nil {
		t.Fatalf("UpdateJobStatus succeeded error = %v", err)
	}
	final, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if final.Status != asset.JobStatusSucceeded || final.Started == nil || final.Finished == nil {
		t.Fatalf("expected timestamps set, got %+v", final)
	}
	if final.Counters.AssetsExtracted != 1 {
		t.Fatalf("expected counters to persist, got %+v", final)
	}
}

func TestJobStoreUnknownJob(t *testing.T) {
	t.Parallel()

	store := NewJobStore()
	ctx := context.Background()

	if _, err := store.GetJob(ctx, "missing"); err == nil {
		t.Fatal("expected error for unknown job")
	}
	if err := store.UpdateJobStatus(ctx, "missing", asset.JobStatusRunning, "", asset.JobCounters{}); err == nil {
		t.Fatal("expected error for unknown job")
	}
}
