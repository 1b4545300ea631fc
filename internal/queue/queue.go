package queue

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"class360/internal/logging"
)

// Depths reports pending jobs per tier plus the active-job count.
type Depths struct {
	High   int `json:"high"`
	Normal int `json:"normal"`
	Low    int `json:"low"`
	Active int `json:"active"`
}

// Total returns the number of pending jobs across tiers.
func (d Depths) Total() int {
	return d.High + d.Normal + d.Low
}

// Queue holds pending jobs in three priority tiers. All mutation happens
// behind one mutex so tier contents and the active count stay consistent no
// matter which goroutine calls in.
type Queue struct {
	logger *slog.Logger

	mu     sync.Mutex
	tiers  map[Priority][]*Job
	active int

	notify chan struct{}
}

// New constructs an empty queue.
func New(logger *slog.Logger) *Queue {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Queue{
		logger: logging.NewComponentLogger(logger, "queue"),
		tiers: map[Priority][]*Job{
			PriorityHigh:   nil,
			PriorityNormal: nil,
			PriorityLow:    nil,
		},
		notify: make(chan struct{}, 1),
	}
}

// Enqueue appends a job to its priority tier and returns the job id
// immediately; execution never happens synchronously. Unknown priorities fall
// back to the normal tier.
func (q *Queue) Enqueue(job *Job) string {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if _, ok := q.tiers[job.Priority]; !ok {
		job.Priority = PriorityNormal
	}
	job.Status = StatusPending

	q.mu.Lock()
	q.tiers[job.Priority] = append(q.tiers[job.Priority], job)
	depths := q.depthsLocked()
	q.mu.Unlock()

	q.logger.Info("job enqueued",
		logging.String(logging.FieldJobID, job.ID),
		logging.String(logging.FieldEntityID, job.EntityID),
		logging.String("type", string(job.Type)),
		logging.String("priority", string(job.Priority)),
		logging.Int("queue_depth", depths.Total()),
	)

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return job.ID
}

// Next pops the oldest job from the highest-priority non-empty tier, marks it
// processing, and counts it active. Returns nil when every tier is empty.
func (q *Queue) Next() *Job {
	q.mu.Lock()
	var job *Job
	for _, tier := range tierOrder {
		pending := q.tiers[tier]
		if len(pending) == 0 {
			continue
		}
		job = pending[0]
		q.tiers[tier] = pending[1:]
		break
	}
	if job == nil {
		q.mu.Unlock()
		return nil
	}
	job.Status = StatusProcessing
	q.active++
	depths := q.depthsLocked()
	q.mu.Unlock()

	q.logger.Info("job dequeued",
		logging.String(logging.FieldJobID, job.ID),
		logging.String("priority", string(job.Priority)),
		logging.Int("queue_depth", depths.Total()),
		logging.Int("active_jobs", depths.Active),
	)
	return job
}

// Finish records a dequeued job's terminal state and releases its active slot.
func (q *Queue) Finish(job *Job, jobErr error) {
	q.mu.Lock()
	if q.active > 0 {
		q.active--
	}
	q.mu.Unlock()

	if jobErr != nil {
		job.Status = StatusFailed
		job.ErrorMessage = jobErr.Error()
		return
	}
	job.Status = StatusCompleted
}

// ClearPending discards every not-yet-started job and returns the discarded
// count. In-flight jobs are never touched.
func (q *Queue) ClearPending() int {
	q.mu.Lock()
	removed := 0
	for _, tier := range tierOrder {
		removed += len(q.tiers[tier])
		q.tiers[tier] = nil
	}
	q.mu.Unlock()

	q.logger.Info("pending queue cleared", logging.Int("removed_count", removed))
	return removed
}

// Depths reports current per-tier depth and the active-job count.
func (q *Queue) Depths() Depths {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.depthsLocked()
}

// Pending returns a snapshot of queued jobs in selection order.
func (q *Queue) Pending() []*Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Job, 0, q.depthsLocked().Total())
	for _, tier := range tierOrder {
		out = append(out, q.tiers[tier]...)
	}
	return out
}

// Notify returns a channel that receives a signal after each enqueue, letting
// the worker loop wake without polling.
func (q *Queue) Notify() <-chan struct{} {
	return q.notify
}

func (q *Queue) depthsLocked() Depths {
	return Depths{
		High:   len(q.tiers[PriorityHigh]),
		Normal: len(q.tiers[PriorityNormal]),
		Low:    len(q.tiers[PriorityLow]),
		Active: q.active,
	}
}
