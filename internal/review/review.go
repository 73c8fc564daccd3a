// Package review implements C9: the human-review gate between a
// DecisionCandidate and playbook execution, generalising the
// request_review/submit_review workflow of the human-review agent onto
// a single ReviewRecord state machine (PENDING -> APPROVED|REJECTED).
package review

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/strands/strands/internal/domain"
	"github.com/strands/strands/internal/errs"
	"github.com/strands/strands/internal/metrics"
)

// Outcome is the side effect the controller must carry out after a
// transition lands (spec.md section 4.9).
type Outcome string

const (
	OutcomeNone           Outcome = ""
	OutcomeExecuteRequest Outcome = "EXECUTE_REQUEST"
)

// Store is the persistence contract this package needs: one
// ReviewRecord per decision, fetched and replaced atomically by the
// caller (graph store upsert keyed on decision id).
type Store interface {
	Get(ctx context.Context, decisionID string) (domain.ReviewRecord, bool, error)
	Put(ctx context.Context, record domain.ReviewRecord) error
}

// Gate coordinates review transitions against a Store.
type Gate struct {
	store Store
}

// NewGate builds a C9 review gate.
func NewGate(store Store) *Gate {
	return &Gate{store: store}
}

// Request opens a PENDING review for a freshly fused decision. It is a
// no-op if a record already exists for this decision.
func (g *Gate) Request(ctx context.Context, decision domain.DecisionCandidate, systemIdentity string) (domain.ReviewRecord, error) {
	existing, found, err := g.store.Get(ctx, decision.ID)
	if err != nil {
		return domain.ReviewRecord{}, err
	}
	if found {
		return existing, nil
	}

	record := domain.ReviewRecord{
		ID:             uuid.NewString(),
		DecisionID:     decision.ID,
		State:          domain.ReviewPending,
		SystemIdentity: systemIdentity,
		Timestamp:      time.Now().UTC(),
	}
	if err := g.store.Put(ctx, record); err != nil {
		return domain.ReviewRecord{}, err
	}
	return record, nil
}

// Approve transitions a decision's review to APPROVED. Returns
// OutcomeExecuteRequest on a fresh transition, OutcomeNone on an
// idempotent repeat.
func (g *Gate) Approve(ctx context.Context, decisionID, reviewerIdentity, notes string) (domain.ReviewRecord, Outcome, error) {
	return g.transition(ctx, decisionID, reviewerIdentity, domain.ReviewApproved, notes)
}

// Reject transitions a decision's review to REJECTED.
func (g *Gate) Reject(ctx context.Context, decisionID, reviewerIdentity, notes string) (domain.ReviewRecord, Outcome, error) {
	return g.transition(ctx, decisionID, reviewerIdentity, domain.ReviewRejected, notes)
}

func (g *Gate) transition(ctx context.Context, decisionID, reviewerIdentity string, target domain.ReviewState, notes string) (domain.ReviewRecord, Outcome, error) {
	record, found, err := g.store.Get(ctx, decisionID)
	if err != nil {
		return domain.ReviewRecord{}, OutcomeNone, err
	}
	if !found {
		return domain.ReviewRecord{}, OutcomeNone, errs.New("review.transition", errs.ValidationFailed, "no review record for decision "+decisionID, nil)
	}

	if reviewerIdentity == record.SystemIdentity {
		return record, OutcomeNone, errs.New("review.transition", errs.InvalidReviewer, "reviewer matches the system identity that produced the decision", nil)
	}

	if record.State != domain.ReviewPending {
		if record.State == target && record.ReviewerIdentity == reviewerIdentity {
			return record, OutcomeNone, nil
		}
		return record, OutcomeNone, errs.New("review.transition", errs.ReviewAlreadyClosed, "review already closed as "+string(record.State), nil)
	}

	record.State = target
	record.ReviewerIdentity = reviewerIdentity
	record.Notes = notes
	record.Timestamp = time.Now().UTC()

	if err := g.store.Put(ctx, record); err != nil {
		return domain.ReviewRecord{}, OutcomeNone, err
	}
	metrics.ObserveReviewDecision(string(target))

	if target == domain.ReviewApproved {
		return record, OutcomeExecuteRequest, nil
	}
	return record, OutcomeNone, nil
}
