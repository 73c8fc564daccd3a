package domain

import "time"

// ReviewState is one of PENDING (initial), APPROVED, REJECTED (terminals).
type ReviewState string

const (
	ReviewPending  ReviewState = "PENDING"
	ReviewApproved ReviewState = "APPROVED"
	ReviewRejected ReviewState = "REJECTED"
)

// ReviewRecord is the exactly-one-per-decision human-in-the-loop verdict.
type ReviewRecord struct {
	ID              string
	DecisionID      string
	State           ReviewState
	ReviewerIdentity string
	SystemIdentity   string // the identity that produced the decision; compared against ReviewerIdentity
	Timestamp        time.Time
	Notes            string
}

// ReplayMode selects C10's operating mode.
type ReplayMode string

const (
	ReplayValidation ReplayMode = "VALIDATION"
	ReplayTraining   ReplayMode = "TRAINING"
	ReplaySimulation ReplayMode = "SIMULATION"
	ReplayAudit      ReplayMode = "AUDIT"
)

// ReplayEvent is the immutable ledger entry C10 replays.
type ReplayEvent struct {
	OriginalTimestamp      time.Time
	OriginalAlert          Alert
	OriginalDecision       DecisionCandidate
	OriginalPlaybookVersion SemVer
	OriginalOutcome        PlaybookOutcome
}

// ReplayClassification is the comparison outcome between an original and
// replayed decision.
type ReplayClassification string

const (
	ReplayMatch            ReplayClassification = "MATCH"
	ReplayDivergenceSafe   ReplayClassification = "DIVERGENCE_SAFE"
	ReplayDivergenceUnsafe ReplayClassification = "DIVERGENCE_UNSAFE"
)
