// Package queue owns asynchronous guest maintenance: the post-exit cleanup
// dispatcher and the periodic orphan sweep.
package queue

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/rs/zerolog"

	"github.com/auragate/parking-backend/internal/api/metrics"
	"github.com/auragate/parking-backend/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 128
)

// cleanupTask is one scheduled guest deletion.
type cleanupTask struct {
	UserID  string
	Email   string
	Attempt int
}

// CleanupDispatcher deletes ephemeral guest records shortly after their exit.
// Tasks are sharded across workers by user id so retries for the same guest
// stay ordered. Scheduling never blocks the exit path and deletion failures
// are retried a bounded number of times, then logged and counted.
type CleanupDispatcher struct {
	workers    []chan cleanupTask
	users      ports.UserRepository
	delay      time.Duration
	maxRetries int
	log        zerolog.Logger
}

// NewCleanupDispatcher creates a dispatcher with numWorkers sharded workers.
func NewCleanupDispatcher(numWorkers int, users ports.UserRepository, delay time.Duration, maxRetries int, log zerolog.Logger) *CleanupDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	d := &CleanupDispatcher{
		workers:    make([]chan cleanupTask, numWorkers),
		users:      users,
		delay:      delay,
		maxRetries: maxRetries,
		log:        log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan cleanupTask, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *CleanupDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Schedule enqueues a guest deletion. A full worker channel drops the task
// with a warning rather than blocking the caller; the orphan sweep picks up
// anything dropped here.
func (d *CleanupDispatcher) Schedule(userID, email string) {
	task := cleanupTask{UserID: userID, Email: email}
	select {
	case d.workers[d.shardIndex(userID)] <- task:
		metrics.GuestCleanupScheduled.Inc()
	default:
		d.log.Warn().Str("user_id", userID).Msg("cleanup queue full, task dropped")
		metrics.GuestCleanupDropped.Inc()
	}
}

// shardIndex maps a user id deterministically to a worker index.
func (d *CleanupDispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *CleanupDispatcher) runWorker(ctx context.Context, id int, ch chan cleanupTask) {
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-ch:
			if !ok {
				return
			}
			if !sleepCtx(ctx, d.delay) {
				return
			}
			if err := d.users.Delete(ctx, task.UserID); err != nil {
				if task.Attempt < d.maxRetries {
					task.Attempt++
					d.log.Warn().Err(err).
						Str("user_id", task.UserID).
						Int("attempt", task.Attempt).
						Msg("guest deletion failed, retrying")
					select {
					case ch <- task:
					default:
						metrics.GuestCleanupFailed.Inc()
					}
					continue
				}
				d.log.Error().Err(err).
					Str("user_id", task.UserID).
					Str("email", task.Email).
					Int("worker_id", id).
					Msg("guest deletion abandoned")
				metrics.GuestCleanupFailed.Inc()
				continue
			}
			d.log.Info().Str("user_id", task.UserID).Str("email", task.Email).Msg("guest deleted")
			metrics.GuestCleanupDeleted.Inc()
		}
	}
}

// sleepCtx waits for d or until ctx is cancelled; reports whether the full
// delay elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
