// Package storage wraps the MinIO Go client behind a small read-only
// interface so the bulk loader can stream dataset files straight from S3 or a
// self-hosted MinIO instance.
//
// # Client Interface
//
// Client exposes only what the loader needs (bucket check, listing and
// streaming downloads), which keeps the mock in core/storage/mocks small.
//
// # Usage
//
//	client, err := storage.NewClient(cfg)
//	exists, err := client.BucketExists(ctx, cfg.Bucket)
package storage
