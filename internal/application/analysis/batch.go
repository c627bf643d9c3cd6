package analysis

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/bryanwahyu/chat-insight/internal/domain/analysis"
)

// interItemDelay spaces out provider calls between queued profiles to stay
// under provider rate limits.
const interItemDelay = 2500 * time.Millisecond

// Batch states
const (
	StateIdle      = "idle"
	StateRunning   = "running"
	StateCompleted = "completed"
	StateCancelled = "cancelled"
)

// ItemResult is one queue entry's outcome.
type ItemResult struct {
	ProfileID   string `json:"profileId,omitempty"`
	DisplayName string `json:"displayName"`
	HistoryID   string `json:"historyId,omitempty"`
	Error       string `json:"error,omitempty"`
}

// BatchResults reports partial success: succeeded, skipped (no data in the
// window) and failed items are listed separately.
type BatchResults struct {
	Success []ItemResult `json:"success"`
	Skipped []ItemResult `json:"skipped"`
	Failed  []ItemResult `json:"failed"`
}

// BatchStatus is a point-in-time snapshot for progress reporting.
type BatchStatus struct {
	State        string       `json:"state"` // running | idle
	LastOutcome  string       `json:"lastOutcome,omitempty"`
	JobID        string       `json:"jobId,omitempty"`
	CurrentIndex int          `json:"currentIndex"`
	CurrentItem  string       `json:"currentItem,omitempty"`
	Total        int          `json:"total"`
	Results      BatchResults `json:"results"`
	StartedAt    time.Time    `json:"startedAt,omitempty"`
	FinishedAt   time.Time    `json:"finishedAt,omitempty"`
}

// Coordinator runs a queue of profiles through the pipeline, strictly
// sequentially, with cooperative cancellation checked only at the boundary
// between items. At most one batch runs at a time.
type Coordinator struct {
	svc   *Service
	delay time.Duration
	sleep func(ctx context.Context, d time.Duration)

	mu        sync.Mutex
	running   bool
	cancelled bool
	done      chan struct{}
	status    BatchStatus
}

func NewCoordinator(svc *Service) *Coordinator {
	return &Coordinator{
		svc:   svc,
		delay: interItemDelay,
		sleep: func(_ context.Context, d time.Duration) { time.Sleep(d) },
		status: BatchStatus{
			State: StateIdle,
		},
	}
}

// Start builds the ordered queue and kicks off the processing loop.
// Rejected while a batch is Running or when the queue would be empty.
func (c *Coordinator) Start(profiles []domain.Profile, scheduled bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return "", domain.ErrBatchRunning
	}
	if len(profiles) == 0 {
		return "", domain.ErrBatchEmpty
	}

	queue := make([]domain.Profile, len(profiles))
	copy(queue, profiles)

	jobID := uuid.New().String()
	c.running = true
	c.cancelled = false
	c.done = make(chan struct{})
	c.status = BatchStatus{
		State:     StateRunning,
		JobID:     jobID,
		Total:     len(queue),
		StartedAt: time.Now(),
	}

	go c.run(queue, scheduled, c.done)
	return jobID, nil
}

// Cancel requests cooperative cancellation. The in-flight item finishes;
// nothing after it starts. Returns false when no batch is running.
func (c *Coordinator) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return false
	}
	c.cancelled = true
	return true
}

// Status returns a snapshot; the results of the last finished batch remain
// visible until the next Start.
func (c *Coordinator) Status() BatchStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Wait blocks until the current batch (if any) finishes. Mainly for tests
// and the synchronous manual trigger path.
func (c *Coordinator) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (c *Coordinator) run(queue []domain.Profile, scheduled bool, done chan struct{}) {
	// Detached context: batches run to completion in the background even if
	// the client that started them disconnects.
	ctx := context.Background()

	for i, p := range queue {
		if c.isCancelled() {
			break
		}

		c.mu.Lock()
		c.status.CurrentIndex = i
		c.status.CurrentItem = p.DisplayName
		c.mu.Unlock()

		log.Printf("batch %d/%d: analyzing %s", i+1, len(queue), p.DisplayName)
		item := ItemResult{ProfileID: p.ID, DisplayName: p.DisplayName}

		res, err := c.svc.Run(ctx, requestFromProfile(p, scheduled))
		c.mu.Lock()
		switch {
		case err == nil:
			item.HistoryID = res.HistoryID
			c.status.Results.Success = append(c.status.Results.Success, item)
		case errors.Is(err, domain.ErrNoData):
			item.Error = err.Error()
			c.status.Results.Skipped = append(c.status.Results.Skipped, item)
		default:
			item.Error = err.Error()
			c.status.Results.Failed = append(c.status.Results.Failed, item)
		}
		c.mu.Unlock()
		if err != nil {
			log.Printf("batch item %s: %v", p.DisplayName, err)
		}

		if i < len(queue)-1 && !c.isCancelled() {
			c.sleep(ctx, c.delay)
		}
	}

	c.mu.Lock()
	c.running = false
	c.status.State = StateIdle
	if c.cancelled {
		c.status.LastOutcome = StateCancelled
	} else {
		c.status.LastOutcome = StateCompleted
	}
	c.status.CurrentItem = ""
	c.status.FinishedAt = time.Now()
	res := c.status.Results
	c.mu.Unlock()

	log.Printf("batch %s: %d succeeded, %d skipped, %d failed",
		c.Status().LastOutcome, len(res.Success), len(res.Skipped), len(res.Failed))
	close(done)
}

func (c *Coordinator) isCancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}

func requestFromProfile(p domain.Profile, scheduled bool) domain.Request {
	return domain.Request{
		ConversationID: p.ConversationID,
		DisplayName:    p.DisplayName,
		TimeRange:      p.TimeRange,
		AnalysisType:   p.AnalysisType,
		CustomPrompt:   p.PromptTemplate,
		IsScheduled:    scheduled,
	}
}
