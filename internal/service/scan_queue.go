package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusops/meetgen-api/pkg/jobs"
)

// ScanQueue feeds background conflict scans through the in-memory job queue.
type ScanQueue struct {
	queue *jobs.Queue
}

// ScanQueueConfig tunes the worker pool.
type ScanQueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// NewScanQueue builds the queue around the conflict service's detail scan.
func NewScanQueue(conflicts *ConflictService, cfg ScanQueueConfig, logger *zap.Logger) *ScanQueue {
	handler := func(ctx context.Context, job jobs.Job) error {
		detailID, ok := job.Payload.(string)
		if !ok {
			return fmt.Errorf("unexpected scan payload %T", job.Payload)
		}
		_, _, err := conflicts.ScanDetail(ctx, detailID)
		return err
	}
	queue := jobs.NewQueue("conflict-scan", handler, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return &ScanQueue{queue: queue}
}

// Start launches the workers.
func (q *ScanQueue) Start(ctx context.Context) {
	q.queue.Start(ctx)
}

// Stop drains the workers.
func (q *ScanQueue) Stop() {
	q.queue.Stop()
}

// Enqueue schedules a scan of one offering detail.
func (q *ScanQueue) Enqueue(detailID string) error {
	return q.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "scan-detail",
		Payload: detailID,
	})
}
