package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/quaxyz/checkout/internal/app"
	"github.com/quaxyz/checkout/internal/workflows"
)

// TemporalScheduler implements app.RetryScheduler by starting one
// PayoutRetry workflow per job. The workflow ID is derived from the
// order, so re-enqueueing the same order while a schedule is already
// running dedupes instead of stacking schedules.
type TemporalScheduler struct {
	client    client.Client
	taskQueue string
}

func NewTemporal(c client.Client, taskQueue string) *TemporalScheduler {
	return &TemporalScheduler{client: c, taskQueue: taskQueue}
}

// Noop discards enqueue requests. The payout worker uses it: inside a
// retry workflow, scheduling another schedule would stack them.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (*Noop) Enqueue(context.Context, app.PayoutJob, []time.Duration) error {
	return nil
}

func (s *TemporalScheduler) Enqueue(ctx context.Context, job app.PayoutJob, delays []time.Duration) error {
	opts := client.StartWorkflowOptions{
		ID:        "payout-retry-" + job.OrderPublicID,
		TaskQueue: s.taskQueue,
	}
	if _, err := s.client.ExecuteWorkflow(ctx, opts, workflows.PayoutRetry, job, delays); err != nil {
		return fmt.Errorf("start payout retry workflow: %w", err)
	}
	return nil
}
