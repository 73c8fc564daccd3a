package review

import (
	"context"

	"github.com/strands/strands/internal/domain"
)

// PlaybookPromoter is the narrow C8 write contract the review gate's
// side effects need: promoting a freshly-generated playbook to ACTIVE
// on approval, archiving it with a reason on rejection.
type PlaybookPromoter interface {
	Approve(ctx context.Context, id, approvedBy string) error
	Reject(ctx context.Context, id, rejectedBy, reason string) error
}

// ApplyPlaybookSideEffect carries out spec.md section 4.9's playbook
// promotion/demotion: a PENDING_REVIEW playbook is promoted to ACTIVE
// on APPROVED, or archived with the rejection note retained on
// REJECTED. wasGenerated restricts the demotion path to playbooks this
// decision's recommender generated, leaving human-curated ACTIVE
// playbooks untouched by a rejected decision.
func ApplyPlaybookSideEffect(ctx context.Context, promoter PlaybookPromoter, record domain.ReviewRecord, playbookID string, wasGenerated bool) error {
	if playbookID == "" {
		return nil
	}
	switch record.State {
	case domain.ReviewApproved:
		return promoter.Approve(ctx, playbookID, record.ReviewerIdentity)
	case domain.ReviewRejected:
		if !wasGenerated {
			return nil
		}
		return promoter.Reject(ctx, playbookID, record.ReviewerIdentity, record.Notes)
	default:
		return nil
	}
}
