package workflows

import (
	"context"

	"github.com/quaxyz/checkout/internal/app"
	"github.com/quaxyz/checkout/internal/logging"
	"github.com/quaxyz/checkout/internal/metrics"
)

const (
	SettlePayoutActivity    = "SettlePayout"
	ReportExhaustedActivity = "ReportPayoutExhausted"
)

// Activities bundles the worker-side dependencies of the payout retry
// workflow.
type Activities struct {
	Payouts *app.PayoutService
	Metrics *metrics.PayoutMetrics
}

// SettlePayout re-resolves the order and merchant destination and makes
// one payout attempt. Errors propagate so the workflow advances to the
// next delay.
func (a *Activities) SettlePayout(ctx context.Context, job app.PayoutJob) error {
	return a.Payouts.SettleOrder(ctx, job.OrderPublicID)
}

// ReportPayoutExhausted records the terminal failure of a payout
// schedule. The order keeps its unset payout hash; the metric and log
// line are the operator signal.
func (a *Activities) ReportPayoutExhausted(ctx context.Context, job app.PayoutJob) error {
	a.Metrics.RetriesExhausted.Inc()
	logging.Log(logging.Fields{
		Service: "payout",
		OrderID: job.OrderPublicID,
		StoreID: job.StoreID,
		Step:    "retry_schedule",
		Status:  "exhausted",
		Message: "all payout retries failed; manual intervention required",
	})
	return nil
}
