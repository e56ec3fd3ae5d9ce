// Package main hosts the asset discovery service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes health, metrics, discovery, and job
//     management endpoints. Extraction requests are validated, normalized into
//     asset.JobParameters, and persisted via the JobStore before being enqueued.
//   - Dispatcher & queue: jobs flow through a bounded in-memory queue sized by
//     config.Extractor.GlobalQueueDepth and fan out to a fixed worker pool sized
//     by config.Extractor.Concurrency. Context cancellation stops workers cleanly.
//   - Extraction pipeline: workers probe each URL with the Colly-based fetcher,
//     optionally promote to a headless Chromedp fetch when the render heuristic
//     flags a script-heavy page, then run the extract.Pipeline: metadata
//     precedence (meta tags, JSON-LD), main-content location, topic/type
//     classification, field extraction, additive quality scoring, and governance
//     profile lookup. Extraction is total: unreachable URLs yield defaulted
//     records and the job still completes.
//   - Persistence & fanout: raw bodies are written to the configured BlobStore
//     (memory/GCS) keyed by content hash; asset records go to the JobStore, with
//     optional write-through archival to Postgres; a compact Pub/Sub notification
//     is published per asset when a topic is configured.
//   - Discovery: /v1/search fans a query out to the web-search client and the
//     statistics-agency client concurrently and merges the hits; /v1/dataflows
//     lists structured series and /v1/dataflows/{id}/data streams their data.
//   - Configuration & plumbing: Viper populates config from env/files (prefix
//     ASSETSCOUT); zap provides structured logging; Prometheus counters and
//     histograms are exported via /metrics; per-domain token-bucket rate limiting
//     throttles outbound fetches.
//
// Run locally: go run ./cmd/assetscout -config config.yaml (or rely solely on
// env overrides). The process reacts to SIGTERM for graceful drain.
package main
