package decision

// Policy is a named threshold policy: a decision's confidence and
// consensus (the agreement score computed by consensus in fuse.go)
// must both clear the thresholds to avoid ESCALATE.
type Policy struct {
	Name               string
	ConfidenceThreshold float64
	ConsensusThreshold  float64
}

// Named policies per spec.md section 4.6 step 6.
var (
	PolicyStrict     = Policy{Name: "STRICT", ConfidenceThreshold: 0.90, ConsensusThreshold: 0.95}
	PolicyBalanced   = Policy{Name: "BALANCED", ConfidenceThreshold: 0.70, ConsensusThreshold: 0.80}
	PolicyPermissive = Policy{Name: "PERMISSIVE", ConfidenceThreshold: 0.50, ConsensusThreshold: 0.60}
)

// PolicyByName resolves a configured policy name, defaulting to
// BALANCED when unrecognised.
func PolicyByName(name string) Policy {
	switch name {
	case "STRICT":
		return PolicyStrict
	case "PERMISSIVE":
		return PolicyPermissive
	case "BALANCED":
		return PolicyBalanced
	default:
		return PolicyBalanced
	}
}

// ConflictPenalty is spec.md section 4.6's conflict-resolution
// invariant: confidence is multiplicatively penalised by 0.85 when
// hypothesis selection flags a conflict.
const ConflictPenalty = 0.85
