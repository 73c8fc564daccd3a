package playbook

import "github.com/strands/strands/internal/domain"

// ChangeKind classifies an edit to a playbook's step list, driving the
// semantic-version component that gets bumped (spec.md section 4.8).
type ChangeKind int

const (
	// ChangeMajor alters the ordered step list's semantics (add/remove/
	// reorder non-trivially) or the rollback procedure.
	ChangeMajor ChangeKind = iota
	// ChangeMinor adds auxiliary steps or refines wording while
	// preserving the critical-path contract.
	ChangeMinor
	// ChangePatch is a text-only fix.
	ChangePatch
)

// Bump returns the next semantic version given a change classification.
func Bump(current domain.SemVer, kind ChangeKind) domain.SemVer {
	switch kind {
	case ChangeMajor:
		return domain.SemVer{Major: current.Major + 1, Minor: 0, Patch: 0}
	case ChangeMinor:
		return domain.SemVer{Major: current.Major, Minor: current.Minor + 1, Patch: 0}
	default:
		return domain.SemVer{Major: current.Major, Minor: current.Minor, Patch: current.Patch + 1}
	}
}

// ClassifyStepChange compares an old and new step-title list to decide
// whether the edit is MAJOR (steps removed, replaced or reordered), MINOR
// (steps only appended at the end) or PATCH (identical step-title list,
// e.g. a wording fix elsewhere in the playbook).
func ClassifyStepChange(oldTitles, newTitles []string) ChangeKind {
	if len(newTitles) < len(oldTitles) {
		return ChangeMajor
	}
	for i, t := range oldTitles {
		if newTitles[i] != t {
			return ChangeMajor
		}
	}
	if len(newTitles) > len(oldTitles) {
		return ChangeMinor
	}
	return ChangePatch
}
