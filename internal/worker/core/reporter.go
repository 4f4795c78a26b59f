// Package core holds infrastructure shared by the workers.
package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/teampulse/teampulse/pkg/metrics"
	"go.uber.org/zap"
)

// HeartbeatInterval is how often workers publish their status.
const HeartbeatInterval = 30 * time.Second

// Status describes one worker instance.
type Status struct {
	WorkerID    string
	WorkerType  string
	CurrentTask string
	IsHealthy   bool
}

// StatusReporter publishes periodic worker health and heartbeat gauges so
// a stalled or failing worker is visible without log diving.
type StatusReporter struct {
	status   Status
	stopChan chan struct{}
	stopped  bool
	mu       sync.Mutex
	logger   *zap.Logger
}

// NewStatusReporter creates a new status reporter for a worker.
func NewStatusReporter(workerType string, logger *zap.Logger) *StatusReporter {
	return &StatusReporter{
		status: Status{
			WorkerID:   uuid.New().String(),
			WorkerType: workerType,
			IsHealthy:  true,
		},
		stopChan: make(chan struct{}),
		logger:   logger.Named("status_reporter"),
	}
}

// Start begins periodic status reporting until the context ends or Stop is
// called.
func (r *StatusReporter) Start(ctx context.Context) {
	r.mu.Lock()

	if r.stopped {
		r.mu.Unlock()
		return
	}

	r.mu.Unlock()

	r.publish()

	go func() {
		ticker := time.NewTicker(HeartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				r.publish()
			case <-ctx.Done():
				return
			case <-r.stopChan:
				return
			}
		}
	}()

	r.logger.Info("Status reporting started",
		zap.String("workerID", r.status.WorkerID),
		zap.String("workerType", r.status.WorkerType))
}

// Stop ends status reporting.
func (r *StatusReporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.stopped {
		close(r.stopChan)
		r.stopped = true
	}
}

// UpdateStatus records the worker's current task.
func (r *StatusReporter) UpdateStatus(task string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status.CurrentTask = task
}

// SetHealthy updates the health status and publishes it immediately.
func (r *StatusReporter) SetHealthy(healthy bool) {
	r.mu.Lock()
	r.status.IsHealthy = healthy
	r.mu.Unlock()

	r.publish()
}

// GetWorkerID returns the unique worker ID.
func (r *StatusReporter) GetWorkerID() string {
	return r.status.WorkerID
}

// publish pushes the current status to the worker gauges.
func (r *StatusReporter) publish() {
	r.mu.Lock()
	healthy := r.status.IsHealthy
	workerType := r.status.WorkerType
	r.mu.Unlock()

	value := 0.0
	if healthy {
		value = 1.0
	}

	metrics.WorkerHealthy.WithLabelValues(workerType).Set(value)
	metrics.WorkerHeartbeat.WithLabelValues(workerType).SetToCurrentTime()
}
