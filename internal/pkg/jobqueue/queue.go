package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/CashFox/internal/pkg/cache"
)

// Redis layout: one string per job plus a pending list, a processing list
// and a status counter hash.
const (
	JobKeyPrefix     = "cashfox:job:"
	JobQueueKey      = "cashfox:jobs:pending"
	JobProcessingKey = "cashfox:jobs:processing"
	JobStatsKey      = "cashfox:jobs:stats"

	DefaultMaxRetries = 3
	JobTTL            = 24 * time.Hour

	defaultQueueWorkers = 3
	stuckJobMaxAge      = 10 * time.Minute
	stuckSweepInterval  = time.Minute
	dequeueTimeout      = time.Second
)

type processorFunc func(q *Queue, ctx context.Context, job *Job) error

// Queue runs reminder and maintenance jobs on Redis lists. A job id moves
// from the pending list to the processing list while a worker holds it.
type Queue struct {
	client     *redis.Client
	workers    int
	processors map[JobType]processorFunc

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool

	depsMu sync.RWMutex
	deps   *Dependencies
}

func NewQueue(workers int) *Queue {
	if workers <= 0 {
		workers = defaultQueueWorkers
	}
	return &Queue{
		client:  cache.GetClient(),
		workers: workers,
		processors: map[JobType]processorFunc{
			JobTypeBillReminder: (*Queue).processBillReminderJob,
		},
		stopCh: make(chan struct{}),
	}
}

func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}

	q.running = true
	q.stopCh = make(chan struct{})
	log.Infof("[Jobs] Starting %d reminder workers", q.workers)

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	q.wg.Add(1)
	go q.sweepStuck()
}

// SetDependencies wires the repositories and senders the processors need.
func (q *Queue) SetDependencies(d *Dependencies) {
	q.depsMu.Lock()
	defer q.depsMu.Unlock()
	q.deps = d
}

// dependencies is read by workers while Stop holds mu.
func (q *Queue) dependencies() *Dependencies {
	q.depsMu.RLock()
	defer q.depsMu.RUnlock()
	return q.deps
}

// Stop closes the workers and waits for the job in hand to finish.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.running {
		return
	}

	close(q.stopCh)
	q.running = false
	q.wg.Wait()
	log.Info("[Jobs] Workers stopped")
}

func (q *Queue) sweepStuck() {
	defer q.wg.Done()
	ticker := time.NewTicker(stuckSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-q.stopCh:
			return
		case <-ticker.C:
			if n := q.recoverStuckJobs(context.Background(), time.Now(), stuckJobMaxAge); n > 0 {
				log.Warnf("[Jobs] Requeued %d jobs left in processing by a crashed worker", n)
			}
		}
	}
}

// recoverStuckJobs puts jobs that have been processing longer than maxAge
// back on the pending list and drops processing entries without a job.
func (q *Queue) recoverStuckJobs(ctx context.Context, now time.Time, maxAge time.Duration) int {
	ids, err := q.client.LRange(ctx, JobProcessingKey, 0, -1).Result()
	if err != nil {
		log.Errorf("[Jobs] Cannot read processing list: %v", err)
		return 0
	}

	recovered := 0
	for _, id := range ids {
		job, err := q.GetJob(ctx, id)
		if err != nil || job.Status != JobStatusProcessing {
			q.removeFromProcessing(ctx, id)
			continue
		}
		if now.Sub(job.startedAt()) <= maxAge {
			continue
		}

		job.Status = JobStatusPending
		job.ErrorMsg = "requeued after worker timeout"
		job.UpdatedAt = now
		q.updateJob(ctx, job)

		pipe := q.client.TxPipeline()
		pipe.LRem(ctx, JobProcessingKey, 1, id)
		pipe.RPush(ctx, JobQueueKey, id)
		if _, err := pipe.Exec(ctx); err != nil {
			log.Errorf("[Jobs] Requeue of %s failed: %v", id, err)
			continue
		}
		recovered++
	}
	return recovered
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			return
		default:
		}

		job, err := q.dequeueJob(ctx)
		switch {
		case errors.Is(err, redis.Nil):
			continue
		case err != nil:
			log.Errorf("[Jobs] Worker %d cannot dequeue: %v", id, err)
			select {
			case <-q.stopCh:
				return
			case <-time.After(time.Second):
			}
			continue
		}

		log.Debugf("[Jobs] Worker %d picked %s job %s", id, job.Type, job.ID)
		q.processJob(ctx, job)
	}
}

func newJob(jobType JobType, payload map[string]interface{}, now time.Time) *Job {
	return &Job{
		ID:         uuid.NewString(),
		Type:       jobType,
		Status:     JobStatusPending,
		Payload:    payload,
		CreatedAt:  now,
		UpdatedAt:  now,
		MaxRetries: DefaultMaxRetries,
	}
}

// EnqueueJob stores the job and pushes its id on the pending list in one
// round trip.
func (q *Queue) EnqueueJob(jobType JobType, payload map[string]interface{}) (*Job, error) {
	ctx := context.Background()
	job := newJob(jobType, payload, time.Now())

	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("encode %s job: %w", jobType, err)
	}

	pipe := q.client.TxPipeline()
	pipe.Set(ctx, JobKeyPrefix+job.ID, data, JobTTL)
	pipe.LPush(ctx, JobQueueKey, job.ID)
	pipe.HIncrBy(ctx, JobStatsKey, string(JobStatusPending), 1)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("enqueue %s job: %w", jobType, err)
	}

	log.Debugf("[Jobs] Enqueued %s job %s", job.Type, job.ID)
	return job, nil
}

// dequeueJob blocks up to a second for the next pending id and loads the
// job. Ids whose data is gone or unreadable are dropped.
func (q *Queue) dequeueJob(ctx context.Context) (*Job, error) {
	id, err := q.client.BRPopLPush(ctx, JobQueueKey, JobProcessingKey, dequeueTimeout).Result()
	if err != nil {
		return nil, err
	}

	job, err := q.GetJob(ctx, id)
	if err != nil {
		q.removeFromProcessing(ctx, id)
		return nil, fmt.Errorf("load job %s: %w", id, err)
	}
	return job, nil
}

func (q *Queue) processJob(ctx context.Context, job *Job) {
	job.MarkAsProcessing()
	q.updateJob(ctx, job)

	var err error
	if process, ok := q.processors[job.Type]; ok {
		err = process(q, ctx, job)
	} else {
		err = fmt.Errorf("unknown job type: %s", job.Type)
	}
	defer q.removeFromProcessing(ctx, job.ID)

	if err == nil {
		job.MarkAsCompleted()
		q.updateJobStats(ctx, JobStatusCompleted, 1)
		q.removeCompletedJob(ctx, job.ID)
		return
	}

	job.MarkAsFailed(err.Error())
	if !job.IsRetryable() {
		log.Errorf("[Jobs] %s job %s gave up after %d attempts: %v", job.Type, job.ID, job.RetryCount, err)
		q.updateJobStats(ctx, JobStatusFailed, 1)
		q.updateJob(ctx, job)
		return
	}

	job.MarkAsRetrying()
	q.updateJob(ctx, job)
	delay := retryDelay(job.RetryCount)
	log.Warnf("[Jobs] %s job %s failed (attempt %d/%d), retrying in %s: %v", job.Type, job.ID, job.RetryCount, job.MaxRetries, delay, err)
	time.AfterFunc(delay, func() {
		if err := q.client.LPush(context.Background(), JobQueueKey, job.ID).Err(); err != nil {
			log.Errorf("[Jobs] Retry push for %s failed: %v", job.ID, err)
		}
	})
}

// retryDelay grows linearly with the attempt, one minute per failure.
func retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(attempt) * time.Minute
}

func (q *Queue) updateJob(ctx context.Context, job *Job) {
	data, err := json.Marshal(job)
	if err != nil {
		log.Errorf("[Jobs] Encode job %s: %v", job.ID, err)
		return
	}
	if err := q.client.Set(ctx, JobKeyPrefix+job.ID, data, JobTTL).Err(); err != nil {
		log.Errorf("[Jobs] Store job %s: %v", job.ID, err)
	}
}

func (q *Queue) removeFromProcessing(ctx context.Context, jobID string) {
	if err := q.client.LRem(ctx, JobProcessingKey, 1, jobID).Err(); err != nil {
		log.Errorf("[Jobs] Remove %s from processing: %v", jobID, err)
	}
}

// Completed jobs leave no trace besides the stats counter.
func (q *Queue) removeCompletedJob(ctx context.Context, jobID string) {
	if err := q.client.Del(ctx, JobKeyPrefix+jobID).Err(); err != nil {
		log.Errorf("[Jobs] Delete completed job %s: %v", jobID, err)
	}
}

func (q *Queue) updateJobStats(ctx context.Context, status JobStatus, delta int64) {
	if err := q.client.HIncrBy(ctx, JobStatsKey, string(status), delta).Err(); err != nil {
		log.Errorf("[Jobs] Update %s counter: %v", status, err)
	}
}

// GetJob returns redis.Nil when the job expired or never existed.
func (q *Queue) GetJob(ctx context.Context, jobID string) (*Job, error) {
	data, err := q.client.Get(ctx, JobKeyPrefix+jobID).Bytes()
	if err != nil {
		return nil, err
	}
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", jobID, err)
	}
	return &job, nil
}

// GetJobStats returns the per-status counters.
func (q *Queue) GetJobStats(ctx context.Context) (map[JobStatus]int64, error) {
	raw, err := q.client.HGetAll(ctx, JobStatsKey).Result()
	if err != nil {
		return nil, err
	}
	stats := make(map[JobStatus]int64, len(raw))
	for status, count := range raw {
		if n, err := strconv.ParseInt(count, 10, 64); err == nil {
			stats[JobStatus(status)] = n
		}
	}
	return stats, nil
}

func (q *Queue) GetQueueSize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, JobQueueKey).Result()
}

func (q *Queue) GetProcessingSize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, JobProcessingKey).Result()
}
