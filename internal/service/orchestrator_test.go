package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"atlas-sync-engine/internal/domain"
)

type mockQueueRepo struct {
	items   []*domain.Mutation
	removed []int64
	listErr error
}

func (m *mockQueueRepo) Add(category, recordID string, op domain.MutationOp, payload map[string]any) (*domain.Mutation, error) {
	mutation := &domain.Mutation{
		ID:         int64(len(m.items) + 1),
		Category:   category,
		RecordID:   recordID,
		Op:         op,
		Payload:    payload,
		EnqueuedAt: time.Now(),
	}
	m.items = append(m.items, mutation)
	return mutation, nil
}

func (m *mockQueueRepo) ListAll() ([]*domain.Mutation, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	items := make([]*domain.Mutation, len(m.items))
	copy(items, m.items)
	return items, nil
}

func (m *mockQueueRepo) Remove(id int64) error {
	for i, item := range m.items {
		if item.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			m.removed = append(m.removed, id)
			return nil
		}
	}
	return errors.New("not found")
}

type queueDispatcher struct {
	outcomes map[int64][]domain.DispatchOutcome
	order    []int64
}

func newQueueDispatcher() *queueDispatcher {
	return &queueDispatcher{outcomes: make(map[int64][]domain.DispatchOutcome)}
}

func (d *queueDispatcher) script(id int64, outcomes ...domain.DispatchOutcome) {
	d.outcomes[id] = outcomes
}

func (d *queueDispatcher) Dispatch(ctx context.Context, m domain.Mutation, rank domain.PriorityRank) domain.DispatchOutcome {
	d.order = append(d.order, m.ID)
	queued := d.outcomes[m.ID]
	if len(queued) == 0 {
		return domain.DispatchOutcome{Status: domain.DispatchSuccess}
	}
	outcome := queued[0]
	d.outcomes[m.ID] = queued[1:]
	return outcome
}

type stubChecker struct {
	online bool
}

func (s *stubChecker) IsOnline(ctx context.Context) bool {
	return s.online
}

type stubPuller struct {
	calls   int
	results []domain.PullResult
}

func (s *stubPuller) PullUpdates(ctx context.Context) []domain.PullResult {
	s.calls++
	return s.results
}

func newTestOrchestrator(queue *mockQueueRepo, dispatcher Dispatcher, puller UpdatePuller, online bool) *Orchestrator {
	return NewOrchestrator(
		queue,
		dispatcher,
		NewResolver(),
		NewRetryController(dispatcher, time.Millisecond),
		puller,
		&stubChecker{online: online},
	)
}

func TestRun_DispatchOrderIsStablePrioritySort(t *testing.T) {
	queue := &mockQueueRepo{}
	// Two medium-rank items around a critical one: the vitals item must
	// jump the line while the equal-rank pair keeps enqueue order.
	queue.Add("clinic-notes", "n-1", domain.OpUpdate, map[string]any{})
	queue.Add(domain.CategoryVitals, "v-1", domain.OpUpdate, map[string]any{})
	queue.Add("clinic-notes", "n-2", domain.OpUpdate, map[string]any{})

	dispatcher := newQueueDispatcher()
	o := newTestOrchestrator(queue, dispatcher, &stubPuller{}, true)

	summary, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := []int64{2, 1, 3}
	if len(dispatcher.order) != len(want) {
		t.Fatalf("expected %d dispatches, got %d", len(want), len(dispatcher.order))
	}
	for i, id := range want {
		if dispatcher.order[i] != id {
			t.Errorf("dispatch %d: expected mutation %d, got %d", i, id, dispatcher.order[i])
		}
	}

	if summary.Synced != 3 || summary.Failed != 0 {
		t.Errorf("expected synced=3 failed=0, got synced=%d failed=%d", summary.Synced, summary.Failed)
	}
	if !summary.Success {
		t.Error("expected successful summary")
	}
}

func TestRun_SuccessRemovesFromQueue(t *testing.T) {
	queue := &mockQueueRepo{}
	queue.Add(domain.CategoryPatients, "p-1", domain.OpUpdate, map[string]any{})

	dispatcher := newQueueDispatcher()
	o := newTestOrchestrator(queue, dispatcher, &stubPuller{}, true)

	o.Run(context.Background())

	if len(queue.items) != 0 {
		t.Errorf("expected empty queue after successful sync, got %d items", len(queue.items))
	}
}

func TestRun_CriticalRetriedExactlyOnceThenLeftQueued(t *testing.T) {
	queue := &mockQueueRepo{}
	queue.Add(domain.CategoryVitals, "v-1", domain.OpUpdate, map[string]any{"bp": "130/85"})

	dispatcher := newQueueDispatcher()
	dispatcher.script(1,
		domain.DispatchOutcome{Status: domain.DispatchTransportFailure, Reason: "timeout"},
		domain.DispatchOutcome{Status: domain.DispatchTransportFailure, Reason: "timeout"},
	)

	o := newTestOrchestrator(queue, dispatcher, &stubPuller{}, true)

	summary, _ := o.Run(context.Background())

	if len(dispatcher.order) != 2 {
		t.Errorf("expected 2 attempts for critical item, got %d", len(dispatcher.order))
	}
	if len(queue.items) != 1 {
		t.Error("expected failed critical item to stay in the queue")
	}
	if summary.Failed != 1 || summary.Synced != 0 {
		t.Errorf("expected failed=1 synced=0, got failed=%d synced=%d", summary.Failed, summary.Synced)
	}
	if summary.Success {
		t.Error("expected unsuccessful summary")
	}
	if !summary.Items[0].Retried {
		t.Error("expected item marked as retried")
	}
}

func TestRun_CriticalRetrySucceeds(t *testing.T) {
	queue := &mockQueueRepo{}
	queue.Add(domain.CategoryVitals, "v-1", domain.OpUpdate, map[string]any{})

	dispatcher := newQueueDispatcher()
	dispatcher.script(1,
		domain.DispatchOutcome{Status: domain.DispatchApplicationFailure, StatusCode: 503},
		domain.DispatchOutcome{Status: domain.DispatchSuccess},
	)

	o := newTestOrchestrator(queue, dispatcher, &stubPuller{}, true)

	summary, _ := o.Run(context.Background())

	if summary.Synced != 1 || summary.Failed != 0 {
		t.Errorf("expected synced=1 failed=0, got synced=%d failed=%d", summary.Synced, summary.Failed)
	}
	if len(queue.items) != 0 {
		t.Error("expected item removed after successful retry")
	}
}

func TestRun_NonCriticalFailureNotRetried(t *testing.T) {
	queue := &mockQueueRepo{}
	queue.Add("clinic-notes", "n-1", domain.OpUpdate, map[string]any{})

	dispatcher := newQueueDispatcher()
	dispatcher.script(1, domain.DispatchOutcome{Status: domain.DispatchTransportFailure, Reason: "timeout"})

	o := newTestOrchestrator(queue, dispatcher, &stubPuller{}, true)

	summary, _ := o.Run(context.Background())

	if len(dispatcher.order) != 1 {
		t.Errorf("expected a single attempt, got %d", len(dispatcher.order))
	}
	if len(queue.items) != 1 {
		t.Error("expected failed item to stay in the queue")
	}
	if summary.Failed != 1 {
		t.Errorf("expected failed=1, got %d", summary.Failed)
	}
}

func TestRun_ConflictIsTerminal(t *testing.T) {
	queue := &mockQueueRepo{}
	queue.Add(domain.CategoryVitals, "v-1", domain.OpUpdate, map[string]any{"bp": "130/85"})

	dispatcher := newQueueDispatcher()
	dispatcher.script(1, domain.DispatchOutcome{
		Status:       domain.DispatchConflict,
		ServerRecord: map[string]any{"bp": "120/80"},
	})

	o := newTestOrchestrator(queue, dispatcher, &stubPuller{}, true)

	summary, _ := o.Run(context.Background())

	if len(dispatcher.order) != 1 {
		t.Errorf("expected no retry after conflict, got %d attempts", len(dispatcher.order))
	}
	if len(queue.items) != 0 {
		t.Error("expected conflicted item removed from queue")
	}
	if summary.Items[0].Resolution != domain.ResolutionBothKept {
		t.Errorf("expected both_kept for vitals, got %s", summary.Items[0].Resolution)
	}
	if summary.Items[0].Status != domain.ItemResolved {
		t.Errorf("expected resolved status, got %s", summary.Items[0].Status)
	}
}

func TestRun_OfflineShortCircuits(t *testing.T) {
	queue := &mockQueueRepo{}
	queue.Add(domain.CategoryVitals, "v-1", domain.OpUpdate, map[string]any{})

	dispatcher := newQueueDispatcher()
	puller := &stubPuller{}
	o := newTestOrchestrator(queue, dispatcher, puller, false)

	summary, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(dispatcher.order) != 0 {
		t.Error("expected zero network calls while offline")
	}
	if puller.calls != 0 {
		t.Error("expected no download pass while offline")
	}
	if summary.Success {
		t.Error("expected skipped run to be reported as not successful")
	}
	if len(summary.Items) != 0 {
		t.Error("expected no items processed while offline")
	}
	if len(queue.items) != 1 {
		t.Error("expected queue untouched while offline")
	}
}

func TestRun_QueueStoreFailure(t *testing.T) {
	queue := &mockQueueRepo{listErr: errors.New("store unreachable")}

	dispatcher := newQueueDispatcher()
	puller := &stubPuller{}
	o := newTestOrchestrator(queue, dispatcher, puller, true)

	summary, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("expected failure summary instead of error, got %v", err)
	}

	if summary.Success {
		t.Error("expected unsuccessful summary")
	}
	if summary.Message == "" {
		t.Error("expected failure message")
	}
	if puller.calls != 0 {
		t.Error("expected no download pass when the queue store is unreachable")
	}
}

func TestRun_DownloadPassAlwaysRunsAfterUploads(t *testing.T) {
	queue := &mockQueueRepo{}
	queue.Add("clinic-notes", "n-1", domain.OpUpdate, map[string]any{})

	dispatcher := newQueueDispatcher()
	dispatcher.script(1, domain.DispatchOutcome{Status: domain.DispatchApplicationFailure, StatusCode: 500})

	puller := &stubPuller{results: []domain.PullResult{{Category: "guidelines", Applied: 3}}}
	o := newTestOrchestrator(queue, dispatcher, puller, true)

	summary, _ := o.Run(context.Background())

	if puller.calls != 1 {
		t.Errorf("expected one download pass despite upload failure, got %d", puller.calls)
	}
	if len(summary.Downloads) != 1 || summary.Downloads[0].Applied != 3 {
		t.Errorf("expected download results in summary, got %v", summary.Downloads)
	}
}

func TestRun_SecondConcurrentRunRejected(t *testing.T) {
	queue := &mockQueueRepo{}
	queue.Add(domain.CategoryVitals, "v-1", domain.OpUpdate, map[string]any{})

	started := make(chan struct{})
	release := make(chan struct{})
	dispatcher := &blockingDispatcher{started: started, release: release}

	o := newTestOrchestrator(queue, dispatcher, &stubPuller{}, true)

	done := make(chan struct{})
	go func() {
		o.Run(context.Background())
		close(done)
	}()

	<-started

	if _, err := o.Run(context.Background()); !errors.Is(err, ErrSyncInProgress) {
		t.Errorf("expected ErrSyncInProgress, got %v", err)
	}
	if !o.Running() {
		t.Error("expected Running() true while the first run is active")
	}

	close(release)
	<-done

	if o.Running() {
		t.Error("expected Running() false after the run finished")
	}
	if o.LastRun() == nil {
		t.Error("expected last run summary recorded")
	}
}

type blockingDispatcher struct {
	started chan struct{}
	release chan struct{}
	once    bool
}

func (d *blockingDispatcher) Dispatch(ctx context.Context, m domain.Mutation, rank domain.PriorityRank) domain.DispatchOutcome {
	if !d.once {
		d.once = true
		close(d.started)
		<-d.release
	}
	return domain.DispatchOutcome{Status: domain.DispatchSuccess}
}

// Mirrors the two-item clinic scenario: a vitals conflict resolves
// keep-both and a fresh patient update syncs cleanly, in that order.
func TestRun_VitalsBeforePatientsScenario(t *testing.T) {
	queue := &mockQueueRepo{}
	queue.Add(domain.CategoryVitals, "v-1", domain.OpUpdate, map[string]any{"bp": "130/85"})
	queue.Add(domain.CategoryPatients, "p-1", domain.OpUpdate, map[string]any{
		"last_visit": time.Now().Format(time.RFC3339),
	})

	dispatcher := newQueueDispatcher()
	dispatcher.script(1, domain.DispatchOutcome{
		Status:       domain.DispatchConflict,
		ServerRecord: map[string]any{"bp": "120/80"},
	})

	o := newTestOrchestrator(queue, dispatcher, &stubPuller{}, true)

	summary, _ := o.Run(context.Background())

	if len(dispatcher.order) != 2 || dispatcher.order[0] != 1 || dispatcher.order[1] != 2 {
		t.Errorf("expected dispatch order [1 2], got %v", dispatcher.order)
	}
	if summary.Synced != 2 || summary.Failed != 0 {
		t.Errorf("expected synced=2 failed=0, got synced=%d failed=%d", summary.Synced, summary.Failed)
	}
	if summary.Items[0].Resolution != domain.ResolutionBothKept {
		t.Errorf("expected both_kept resolution, got %s", summary.Items[0].Resolution)
	}
	if len(queue.items) != 0 {
		t.Error("expected both items removed")
	}
}
