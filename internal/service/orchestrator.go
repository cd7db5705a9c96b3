package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"atlas-sync-engine/internal/domain"
	"atlas-sync-engine/internal/repository"

	"github.com/google/uuid"
)

// Orchestrator sequences one full sync run: connectivity check,
// classification, priority-ordered dispatch, conflict resolution,
// selective retry, queue removal and the download pass. Items are
// processed strictly one at a time so an urgent item's outcome is
// durably recorded before the next item is attempted.
// UpdatePuller runs the download pass after the upload loop. Satisfied
// by *Downloader.
type UpdatePuller interface {
	PullUpdates(ctx context.Context) []domain.PullResult
}

type Orchestrator struct {
	queue        repository.QueueRepository
	dispatcher   Dispatcher
	resolver     *Resolver
	retry        *RetryController
	downloader   UpdatePuller
	connectivity ConnectivityChecker
	now          func() time.Time

	mu      sync.Mutex
	running bool
	lastRun *domain.RunSummary
}

func NewOrchestrator(
	queue repository.QueueRepository,
	dispatcher Dispatcher,
	resolver *Resolver,
	retry *RetryController,
	downloader UpdatePuller,
	connectivity ConnectivityChecker,
) *Orchestrator {
	return &Orchestrator{
		queue:        queue,
		dispatcher:   dispatcher,
		resolver:     resolver,
		retry:        retry,
		downloader:   downloader,
		connectivity: connectivity,
		now:          time.Now,
	}
}

type classifiedMutation struct {
	mutation domain.Mutation
	rank     domain.PriorityRank
	strategy domain.ConflictStrategy
}

// Run executes one sync pass and returns its summary. A second
// invocation while a run is active gets ErrSyncInProgress; overlapping
// passes over the same queue are rejected rather than interleaved.
func (o *Orchestrator) Run(ctx context.Context) (*domain.RunSummary, error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, ErrSyncInProgress
	}
	o.running = true
	o.mu.Unlock()

	summary := &domain.RunSummary{
		RunID:     uuid.New().String(),
		StartedAt: o.now(),
	}

	defer func() {
		summary.FinishedAt = o.now()
		o.mu.Lock()
		o.running = false
		o.lastRun = summary
		o.mu.Unlock()
	}()

	if !o.connectivity.IsOnline(ctx) {
		summary.Message = "device offline, sync skipped"
		return summary, nil
	}

	mutations, err := o.queue.ListAll()
	if err != nil {
		summary.Message = fmt.Sprintf("failed to read sync queue: %v", err)
		return summary, nil
	}

	classified := make([]classifiedMutation, 0, len(mutations))
	for _, m := range mutations {
		c := Classify(*m, o.now())
		classified = append(classified, classifiedMutation{
			mutation: *m,
			rank:     c.Rank,
			strategy: c.Strategy,
		})
	}

	// Stable: equal ranks keep first-enqueued, first-dispatched order.
	sort.SliceStable(classified, func(i, j int) bool {
		return classified[i].rank < classified[j].rank
	})

	for _, item := range classified {
		result := o.processItem(ctx, item)
		summary.Items = append(summary.Items, result)
		if result.Status == domain.ItemFailed {
			summary.Failed++
		} else {
			summary.Synced++
		}
	}

	summary.Downloads = o.downloader.PullUpdates(ctx)
	summary.Success = summary.Failed == 0

	log.Printf("Sync run %s finished: synced=%d failed=%d", summary.RunID, summary.Synced, summary.Failed)

	return summary, nil
}

func (o *Orchestrator) processItem(ctx context.Context, item classifiedMutation) domain.ItemResult {
	result := domain.ItemResult{
		MutationID: item.mutation.ID,
		Category:   item.mutation.Category,
		Priority:   item.rank,
	}

	outcome := o.dispatcher.Dispatch(ctx, item.mutation, item.rank)

	if outcome.Retryable() {
		if second := o.retry.MaybeRetry(ctx, item.mutation, item.rank, outcome); second != nil {
			result.Retried = true
			outcome = *second
		}
	}

	switch outcome.Status {
	case domain.DispatchSuccess:
		result.Status = domain.ItemSynced
		o.removeOrFail(item.mutation.ID, &result)

	case domain.DispatchConflict:
		resolution := o.resolver.Resolve(item.mutation, item.strategy, outcome.ServerRecord)
		result.Status = domain.ItemResolved
		result.Resolution = resolution.Outcome
		o.removeOrFail(item.mutation.ID, &result)

	default:
		// Recoverable failure: the item stays queued for the next run.
		result.Status = domain.ItemFailed
		result.Error = outcome.Reason
		log.Printf("Dispatch failed for mutation %d (%s): %s", item.mutation.ID, item.mutation.Category, outcome.Reason)
	}

	return result
}

func (o *Orchestrator) removeOrFail(id int64, result *domain.ItemResult) {
	if err := o.queue.Remove(id); err != nil {
		result.Status = domain.ItemFailed
		result.Error = fmt.Sprintf("failed to remove from queue: %v", err)
		log.Printf("Failed to remove mutation %d from queue: %v", id, err)
	}
}

// Running reports whether a sync run is currently active.
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// LastRun returns the summary of the most recent completed run, or nil
// if none has run yet.
func (o *Orchestrator) LastRun() *domain.RunSummary {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastRun
}

// StartPeriodicSync triggers a run on a fixed interval until ctx is
// cancelled. Runs skipped because one is already active are not errors.
func (o *Orchestrator) StartPeriodicSync(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := o.Run(ctx); err != nil && err != ErrSyncInProgress {
				log.Printf("Periodic sync failed: %v", err)
			}
		}
	}
}
