package service

import (
	"testing"
	"time"

	"atlas-sync-engine/internal/domain"
)

func TestResolver_LWWClinicalAlwaysClientWins(t *testing.T) {
	r := NewResolver()

	m := domain.Mutation{
		ID:       1,
		Category: domain.CategoryConsultations,
		Op:       domain.OpUpdate,
		RecordID: "c-1",
		Payload:  map[string]any{"diagnosis": "malaria"},
	}

	// The server copy is newer, but clinical precedence still keeps
	// the client version.
	server := map[string]any{
		"diagnosis":  "pending",
		"updated_at": time.Now().Add(time.Hour).Format(time.RFC3339),
	}

	res := r.Resolve(m, domain.StrategyLWWClinical, server)
	if res.Outcome != domain.ResolutionClientWins {
		t.Errorf("expected client_wins, got %s", res.Outcome)
	}
}

func TestResolver_MergeAudit(t *testing.T) {
	r := NewResolver()
	r.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }

	m := domain.Mutation{
		ID:         2,
		Category:   domain.CategoryPatients,
		Op:         domain.OpUpdate,
		RecordID:   "p-1",
		Payload:    map[string]any{"phone": "555-0101", "village": "Kibera"},
		EnqueuedAt: time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC),
	}

	server := map[string]any{
		"phone":      "555-9999",
		"allergies":  "penicillin",
		"updated_at": "2026-03-10T10:00:00Z",
	}

	res := r.Resolve(m, domain.StrategyMergeAudit, server)
	if res.Outcome != domain.ResolutionMerged {
		t.Fatalf("expected merged, got %s", res.Outcome)
	}

	if res.MergedData["phone"] != "555-0101" {
		t.Errorf("expected client field to win, got %v", res.MergedData["phone"])
	}
	if res.MergedData["allergies"] != "penicillin" {
		t.Errorf("expected server-only field to survive, got %v", res.MergedData["allergies"])
	}
	if res.MergedData["village"] != "Kibera" {
		t.Errorf("expected client-only field to survive, got %v", res.MergedData["village"])
	}

	audit, ok := res.MergedData["audit"].(map[string]any)
	if !ok {
		t.Fatal("expected audit block on merged record")
	}
	if audit["merged_at"] != "2026-03-10T12:00:00Z" {
		t.Errorf("unexpected merged_at: %v", audit["merged_at"])
	}
	if audit["client_modified"] != "2026-03-10T11:00:00Z" {
		t.Errorf("unexpected client_modified: %v", audit["client_modified"])
	}
	if audit["server_modified"] != "2026-03-10T10:00:00Z" {
		t.Errorf("unexpected server_modified: %v", audit["server_modified"])
	}
}

func TestResolver_KeepBoth(t *testing.T) {
	r := NewResolver()

	m := domain.Mutation{
		ID:       3,
		Category: domain.CategoryVitals,
		Op:       domain.OpUpdate,
		RecordID: "v-1",
		Payload:  map[string]any{"bp": "130/85"},
	}

	res := r.Resolve(m, domain.StrategyKeepBoth, map[string]any{"bp": "120/80"})
	if res.Outcome != domain.ResolutionBothKept {
		t.Errorf("expected both_kept, got %s", res.Outcome)
	}
	if res.MergedData != nil {
		t.Error("keep-both should not produce merged data")
	}
}

func TestResolver_ServerWinsDefault(t *testing.T) {
	r := NewResolver()

	m := domain.Mutation{
		ID:       4,
		Category: "clinic-notes",
		Op:       domain.OpUpdate,
		RecordID: "n-1",
		Payload:  map[string]any{"text": "follow up"},
	}

	res := r.Resolve(m, domain.StrategyServerWins, map[string]any{"text": "original"})
	if res.Outcome != domain.ResolutionServerWins {
		t.Errorf("expected server_wins, got %s", res.Outcome)
	}

	// Unrecognized strategies fall back to server-wins too.
	res = r.Resolve(m, domain.ConflictStrategy("bogus"), nil)
	if res.Outcome != domain.ResolutionServerWins {
		t.Errorf("expected server_wins fallback, got %s", res.Outcome)
	}
}
