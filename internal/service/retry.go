package service

import (
	"context"
	"time"

	"atlas-sync-engine/internal/domain"
)

// RetryController grants critical mutations a single immediate retry
// after a transport or application failure. Conflicts are never
// retried, and nothing is retried more than once per run.
type RetryController struct {
	dispatcher Dispatcher
	interval   time.Duration
}

func NewRetryController(dispatcher Dispatcher, interval time.Duration) *RetryController {
	return &RetryController{
		dispatcher: dispatcher,
		interval:   interval,
	}
}

// MaybeRetry returns the second attempt's outcome, or nil when the item
// does not qualify for a retry.
func (c *RetryController) MaybeRetry(ctx context.Context, m domain.Mutation, rank domain.PriorityRank, outcome domain.DispatchOutcome) *domain.DispatchOutcome {
	if rank != domain.PriorityCritical || !outcome.Retryable() {
		return nil
	}

	select {
	case <-time.After(c.interval):
	case <-ctx.Done():
		failed := domain.DispatchOutcome{
			Status: domain.DispatchTransportFailure,
			Reason: ctx.Err().Error(),
		}
		return &failed
	}

	second := c.dispatcher.Dispatch(ctx, m, rank)
	return &second
}
