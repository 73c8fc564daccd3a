// Package playbook implements C8: the playbook lifecycle state machine,
// semantic versioning and atomic Welford statistics, generalising
// original_source/src/core/neo4j_playbook_store.py's curation workflow
// onto the richer lifecycle spec.md section 4.8 requires.
package playbook

import (
	"time"

	"github.com/strands/strands/internal/domain"
	"github.com/strands/strands/internal/errs"
	"github.com/strands/strands/internal/metrics"
)

// transitions enumerates every legal (from, event) -> to move. Any pair
// absent from this table is illegal.
var transitions = map[domain.PlaybookStatus]map[string]domain.PlaybookStatus{
	domain.PlaybookDraft: {
		"submit": domain.PlaybookPendingReview,
	},
	domain.PlaybookPendingReview: {
		"approve": domain.PlaybookActive,
		"reject":  domain.PlaybookArchived,
	},
	domain.PlaybookActive: {
		"deprecate": domain.PlaybookDeprecated,
	},
	domain.PlaybookDeprecated: {
		"archive": domain.PlaybookArchived,
	},
}

// Transition applies event to a playbook's status, returning the new
// status or ILLEGAL_STATE_TRANSITION. ARCHIVED is terminal: invariant 6
// from spec.md section 8 ("any playbook that ever reached ARCHIVED stays
// ARCHIVED") holds because ARCHIVED has no outgoing entries above.
func Transition(current domain.PlaybookStatus, event string) (domain.PlaybookStatus, error) {
	moves, ok := transitions[current]
	if !ok {
		return current, errs.New("playbook.Transition", errs.IllegalStateTransition,
			"no transitions defined for status "+string(current), nil)
	}
	next, ok := moves[event]
	if !ok {
		return current, errs.New("playbook.Transition", errs.IllegalStateTransition,
			"event "+event+" not legal from status "+string(current), nil)
	}
	metrics.ObservePlaybookTransition(event, string(next))
	return next, nil
}

// Submit moves DRAFT -> PENDING_REVIEW.
func Submit(p *domain.Playbook) error {
	next, err := Transition(p.Status, "submit")
	if err != nil {
		return err
	}
	p.Status = next
	return nil
}

// Approve moves PENDING_REVIEW -> ACTIVE.
func Approve(p *domain.Playbook, approvedBy string) error {
	next, err := Transition(p.Status, "approve")
	if err != nil {
		return err
	}
	p.Status = next
	p.ApprovedBy = approvedBy
	return nil
}

// Reject moves PENDING_REVIEW -> ARCHIVED.
func Reject(p *domain.Playbook) error {
	next, err := Transition(p.Status, "reject")
	if err != nil {
		return err
	}
	p.Status = next
	return nil
}

// Deprecate moves ACTIVE -> DEPRECATED.
func Deprecate(p *domain.Playbook) error {
	next, err := Transition(p.Status, "deprecate")
	if err != nil {
		return err
	}
	p.Status = next
	return nil
}

// Archive moves DEPRECATED -> ARCHIVED.
func Archive(p *domain.Playbook) error {
	next, err := Transition(p.Status, "archive")
	if err != nil {
		return err
	}
	p.Status = next
	return nil
}

// NewMajorVersion spawns a new DRAFT Playbook carrying the next major
// version, linked back to its predecessor by ID. The predecessor is
// deprecated only once the new version is approved (spec.md section 4.8:
// "predecessor becomes DEPRECATED on new version's approval"), so this
// function does not itself mutate predecessor.
func NewMajorVersion(predecessor domain.Playbook, newID string) domain.Playbook {
	draft := predecessor
	draft.ID = newID
	draft.PreviousVersion = predecessor.ID
	draft.Status = domain.PlaybookDraft
	draft.Version = domain.SemVer{Major: predecessor.Version.Major + 1, Minor: 0, Patch: 0}
	draft.Stats = domain.PlaybookStats{}
	draft.ApprovedAt = time.Time{}
	draft.ApprovedBy = ""
	return draft
}

// PromotePredecessor deprecates predecessor once its successor is
// approved, completing the section 4.8 major-version handoff.
func PromotePredecessor(predecessor *domain.Playbook) error {
	if predecessor.Status != domain.PlaybookActive {
		return nil
	}
	return Deprecate(predecessor)
}
