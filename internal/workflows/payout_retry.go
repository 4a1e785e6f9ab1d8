package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/quaxyz/checkout/internal/app"
)

// PayoutRetry walks the escalating delay schedule for one failed
// merchant payout. Each step sleeps, then runs the settle activity
// exactly once; per-step retrying is disabled because the schedule
// itself is the retry policy. When every attempt fails the workflow
// fails permanently and stays visible for manual intervention.
func PayoutRetry(ctx workflow.Context, job app.PayoutJob, delays []time.Duration) error {
	logger := workflow.GetLogger(ctx)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})

	for attempt, delay := range delays {
		if err := workflow.Sleep(ctx, delay); err != nil {
			return err
		}

		err := workflow.ExecuteActivity(ctx, SettlePayoutActivity, job).Get(ctx, nil)
		if err == nil {
			logger.Info("payout settled", "order", job.OrderPublicID, "attempt", attempt+1)
			return nil
		}
		logger.Warn("payout attempt failed",
			"order", job.OrderPublicID,
			"attempt", attempt+1,
			"remaining", len(delays)-attempt-1,
			"error", err,
		)
	}

	_ = workflow.ExecuteActivity(ctx, ReportExhaustedActivity, job).Get(ctx, nil)

	return temporal.NewNonRetryableApplicationError(
		fmt.Sprintf("payout retries exhausted for order %s", job.OrderPublicID),
		"PayoutExhausted",
		nil,
	)
}
