package review

import (
	"context"
	"testing"

	"github.com/strands/strands/internal/domain"
	"github.com/strands/strands/internal/errs"
)

type fakeStore struct {
	records map[string]domain.ReviewRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]domain.ReviewRecord{}}
}

func (f *fakeStore) Get(ctx context.Context, decisionID string) (domain.ReviewRecord, bool, error) {
	r, ok := f.records[decisionID]
	return r, ok, nil
}

func (f *fakeStore) Put(ctx context.Context, record domain.ReviewRecord) error {
	f.records[record.DecisionID] = record
	return nil
}

func TestGateRequestThenApprove(t *testing.T) {
	store := newFakeStore()
	gate := NewGate(store)
	ctx := context.Background()

	decision := domain.DecisionCandidate{ID: "dec-1"}
	if _, err := gate.Request(ctx, decision, "strands-system"); err != nil {
		t.Fatalf("Request: %v", err)
	}

	record, outcome, err := gate.Approve(ctx, "dec-1", "alice", "looks right")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if record.State != domain.ReviewApproved {
		t.Fatalf("state = %v, want APPROVED", record.State)
	}
	if outcome != OutcomeExecuteRequest {
		t.Fatalf("outcome = %v, want EXECUTE_REQUEST", outcome)
	}
}

func TestGateRejectsSystemIdentityAsReviewer(t *testing.T) {
	store := newFakeStore()
	gate := NewGate(store)
	ctx := context.Background()

	decision := domain.DecisionCandidate{ID: "dec-2"}
	_, _ = gate.Request(ctx, decision, "strands-system")

	_, _, err := gate.Approve(ctx, "dec-2", "strands-system", "")
	if !errs.Is(err, errs.InvalidReviewer) {
		t.Fatalf("expected INVALID_REVIEWER, got %v", err)
	}
}

func TestGateIdempotentRepeatIsNoOp(t *testing.T) {
	store := newFakeStore()
	gate := NewGate(store)
	ctx := context.Background()

	decision := domain.DecisionCandidate{ID: "dec-3"}
	_, _ = gate.Request(ctx, decision, "strands-system")
	_, _, _ = gate.Approve(ctx, "dec-3", "alice", "first pass")

	record, outcome, err := gate.Approve(ctx, "dec-3", "alice", "first pass")
	if err != nil {
		t.Fatalf("expected idempotent no-op, got error %v", err)
	}
	if outcome != OutcomeNone {
		t.Fatalf("expected no outcome on repeat, got %v", outcome)
	}
	if record.State != domain.ReviewApproved {
		t.Fatalf("state should remain APPROVED")
	}
}

func TestGateDifferingReviewerOnTerminalStateIsClosed(t *testing.T) {
	store := newFakeStore()
	gate := NewGate(store)
	ctx := context.Background()

	decision := domain.DecisionCandidate{ID: "dec-4"}
	_, _ = gate.Request(ctx, decision, "strands-system")
	_, _, _ = gate.Approve(ctx, "dec-4", "alice", "")

	_, _, err := gate.Reject(ctx, "dec-4", "bob", "disagree")
	if !errs.Is(err, errs.ReviewAlreadyClosed) {
		t.Fatalf("expected REVIEW_ALREADY_CLOSED, got %v", err)
	}
}
