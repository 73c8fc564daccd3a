// Package decision implements C6: weighted evidence fusion across a
// swarm's SpecialistResults into one DecisionCandidate, generalising
// the teacher's engine.Pipeline.computeConfidence/calibrateConfidence
// single-path confidence blend into the full weighted-mean, conflict,
// risk-grading and threshold-policy pipeline spec.md section 4.6 names.
package decision

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WeightMatrix assigns a relative weight to each specialist id in the
// weighted-confidence mean. Keys are specialist ids (e.g.
// "metrics-analyst"); unrecognised ids default to weight 0, matching
// spec.md's "recognized options {metrics, logs, graph, embeddings,
// correlator, ...}".
type WeightMatrix map[string]float64

// DefaultWeights is spec.md section 4.6 step 2's default matrix.
func DefaultWeights() WeightMatrix {
	return WeightMatrix{
		"metrics-analyst":      0.4,
		"log-inspector":        0.3,
		"graph-context":        0.1,
		"embedding-similarity": 0.1,
		"correlator":           0.1,
	}
}

// LoadWeights reads a WeightMatrix override from a YAML file (the
// WEIGHTS_FILE config knob), following config.Load's own
// read-then-unmarshal shape. An operator rolling out a reweighted
// model drops a new file at this path rather than redeploying.
func LoadWeights(path string) (WeightMatrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weights file: %w", err)
	}
	var matrix WeightMatrix
	if err := yaml.Unmarshal(data, &matrix); err != nil {
		return nil, fmt.Errorf("parse weights file: %w", err)
	}
	return matrix, nil
}
