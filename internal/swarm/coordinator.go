package swarm

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/strands/strands/internal/domain"
	"github.com/strands/strands/internal/errs"
	"github.com/strands/strands/internal/metrics"
)

// Coordinator dispatches every registered Specialist against one
// cluster concurrently, under one shared deadline, and joins their
// results deterministically by specialist ID.
type Coordinator struct {
	specialists []Specialist
}

// NewCoordinator registers the specialist roster once; the same
// Coordinator investigates many clusters over its lifetime.
func NewCoordinator(specialists []Specialist) *Coordinator {
	return &Coordinator{specialists: specialists}
}

// Investigate implements the investigate(cluster, deadline) contract:
// every specialist is spawned on its own goroutine sharing a context
// derived from deadline; results are collected as they complete, any
// specialist still outstanding at deadline expiry is recorded as
// TIMEOUT, and the returned slice is ordered by specialist ID
// regardless of completion order (spec.md section 4.5 rules 3 and 5).
func (c *Coordinator) Investigate(ctx context.Context, cluster *domain.AlertCluster, deadline time.Duration) ([]domain.SpecialistResult, error) {
	if deadline <= 0 {
		deadline = DefaultGlobalDeadline
	}
	deadlineCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	type outcome struct {
		index  int
		result domain.SpecialistResult
	}

	outcomes := make(chan outcome, len(c.specialists))
	var wg sync.WaitGroup
	wg.Add(len(c.specialists))

	for i, specialist := range c.specialists {
		go func(i int, s Specialist) {
			defer wg.Done()
			started := time.Now()
			result, err := s.Investigate(deadlineCtx, cluster)
			result.SpecialistID = s.ID()
			result.Duration = time.Since(started)

			if err != nil {
				if deadlineCtx.Err() != nil {
					result.Status = domain.CompletionTimeout
					metrics.ObserveSpecialistTimeout(s.ID())
				} else {
					result.Status = domain.CompletionError
					result.ErrorKind = string(errs.ClassOf(err))
				}
			} else if result.Status == "" {
				result.Status = domain.CompletionSuccess
			}
			outcomes <- outcome{index: i, result: result}
		}(i, specialist)
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	collected := make(map[int]domain.SpecialistResult, len(c.specialists))
	for o := range outcomes {
		collected[o.index] = o.result
	}

	for i, specialist := range c.specialists {
		if _, ok := collected[i]; !ok {
			collected[i] = domain.SpecialistResult{
				SpecialistID: specialist.ID(),
				Status:       domain.CompletionTimeout,
				Duration:     deadline,
			}
			metrics.ObserveSpecialistTimeout(specialist.ID())
		}
	}

	results := make([]domain.SpecialistResult, 0, len(collected))
	successCount := 0
	for _, r := range collected {
		results = append(results, r)
		if r.Status == domain.CompletionSuccess {
			successCount++
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].SpecialistID < results[j].SpecialistID })

	if successCount == 0 {
		return results, errs.New("swarm.Investigate", errs.InvestigationDegraded, "no specialist completed with SUCCESS", nil)
	}
	return results, nil
}
