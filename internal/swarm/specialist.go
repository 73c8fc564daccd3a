// Package swarm implements C5: parallel dispatch of specialists against
// one alert cluster under a shared deadline, generalising the teacher's
// sequential engine.Pipeline.Investigate into true goroutine fan-out
// joined by a single coordinator, per spec.md section 4.5's scheduling
// model ("parallel goroutine/thread/task per specialist, joined by a
// coordinator").
package swarm

import (
	"context"
	"time"

	"github.com/strands/strands/internal/domain"
)

// Specialist investigates one alert cluster and returns a result.
// Implementations own their own C2 adapter calls (each individually
// C1-guarded) and must respect ctx's deadline.
type Specialist interface {
	ID() string
	Investigate(ctx context.Context, cluster *domain.AlertCluster) (domain.SpecialistResult, error)
}

// DefaultGlobalDeadline is spec.md section 4.5's default shared
// deadline for one investigation.
const DefaultGlobalDeadline = 30 * time.Second
