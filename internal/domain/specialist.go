package domain

import "time"

// EvidenceKind enumerates the supporting-evidence categories a specialist
// may attach to a SpecialistResult.
type EvidenceKind string

const (
	EvidenceMetric          EvidenceKind = "METRIC"
	EvidenceLog             EvidenceKind = "LOG"
	EvidenceTrace           EvidenceKind = "TRACE"
	EvidenceEvent           EvidenceKind = "EVENT"
	EvidenceGraphRelation   EvidenceKind = "GRAPH_RELATION"
	EvidenceDocument        EvidenceKind = "DOCUMENT"
	EvidenceSimilarIncident EvidenceKind = "SIMILAR_INCIDENT"
)

// EvidenceItem is a single piece of support for a specialist's hypothesis.
type EvidenceItem struct {
	Kind        EvidenceKind
	Source      string
	Description string
	Quality     float64 // in [0,1]
	Timestamp   time.Time
	Payload     float64
	HasPayload  bool
}

// CompletionStatus is the terminal state of one specialist invocation.
type CompletionStatus string

const (
	CompletionSuccess CompletionStatus = "SUCCESS"
	CompletionTimeout CompletionStatus = "TIMEOUT"
	CompletionError   CompletionStatus = "ERROR"
)

// SpecialistResult is the immutable output of one specialist in the swarm.
type SpecialistResult struct {
	SpecialistID     string
	Hypothesis       string
	BaseConfidence   float64 // in [0,1]
	Evidence         []EvidenceItem
	SuggestedActions []string
	Status           CompletionStatus
	ErrorKind        string // populated when Status == CompletionError
	Duration         time.Duration
}

// EvidenceQuality returns the mean quality score across Evidence, or 0 if
// there is none, matching the q_i = base_confidence_i *
// evidence_quality_i definition of internal/decision's qualityScore.
func (r SpecialistResult) EvidenceQuality() float64 {
	if len(r.Evidence) == 0 {
		return 0
	}
	var sum float64
	for _, e := range r.Evidence {
		sum += e.Quality
	}
	return sum / float64(len(r.Evidence))
}
