package swarm

import (
	"context"
	"testing"
	"time"

	"github.com/strands/strands/internal/domain"
)

type fakeSpecialist struct {
	id       string
	delay    time.Duration
	result   domain.SpecialistResult
	err      error
}

func (f *fakeSpecialist) ID() string { return f.id }

func (f *fakeSpecialist) Investigate(ctx context.Context, cluster *domain.AlertCluster) (domain.SpecialistResult, error) {
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return domain.SpecialistResult{}, ctx.Err()
	}
	return f.result, f.err
}

func TestCoordinatorOrdersBySpecialistID(t *testing.T) {
	coordinator := NewCoordinator([]Specialist{
		&fakeSpecialist{id: "zeta", result: domain.SpecialistResult{Status: domain.CompletionSuccess}},
		&fakeSpecialist{id: "alpha", result: domain.SpecialistResult{Status: domain.CompletionSuccess}},
		&fakeSpecialist{id: "mu", result: domain.SpecialistResult{Status: domain.CompletionSuccess}},
	})

	cluster := &domain.AlertCluster{ID: "c1", CanonicalService: "checkout"}
	results, err := coordinator.Investigate(context.Background(), cluster, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if results[0].SpecialistID != "alpha" || results[1].SpecialistID != "mu" || results[2].SpecialistID != "zeta" {
		t.Fatalf("order = %v, want alpha, mu, zeta", []string{results[0].SpecialistID, results[1].SpecialistID, results[2].SpecialistID})
	}
}

func TestCoordinatorTimesOutSlowSpecialist(t *testing.T) {
	coordinator := NewCoordinator([]Specialist{
		&fakeSpecialist{id: "fast", result: domain.SpecialistResult{Status: domain.CompletionSuccess}},
		&fakeSpecialist{id: "slow", delay: time.Second},
	})

	cluster := &domain.AlertCluster{ID: "c1", CanonicalService: "checkout"}
	results, err := coordinator.Investigate(context.Background(), cluster, 30*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var slow domain.SpecialistResult
	for _, r := range results {
		if r.SpecialistID == "slow" {
			slow = r
		}
	}
	if slow.Status != domain.CompletionTimeout {
		t.Fatalf("slow specialist status = %v, want TIMEOUT", slow.Status)
	}
}

func TestCoordinatorDegradedWhenNoSuccess(t *testing.T) {
	coordinator := NewCoordinator([]Specialist{
		&fakeSpecialist{id: "a", err: context.DeadlineExceeded},
		&fakeSpecialist{id: "b", err: context.DeadlineExceeded},
	})

	cluster := &domain.AlertCluster{ID: "c1", CanonicalService: "checkout"}
	_, err := coordinator.Investigate(context.Background(), cluster, 50*time.Millisecond)
	if err == nil {
		t.Fatalf("expected INVESTIGATION_DEGRADED error")
	}
}
