package health

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Registry is the set of dependencies /health/ready reports on. Postgres is
// always present; Redis and Kafka join when the deployment enables them.
type Registry struct {
	checkers []Checker
}

func NewRegistry(checkers ...Checker) *Registry {
	return &Registry{checkers: checkers}
}

func (r *Registry) Add(c Checker) {
	r.checkers = append(r.checkers, c)
}

// CheckResult is one dependency's entry in the readiness body.
type CheckResult struct {
	Name       string `json:"name"`
	Status     Status `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

type ReadinessResponse struct {
	Status Status        `json:"status"`
	Checks []CheckResult `json:"checks,omitempty"`
}

// CheckAll runs every checker concurrently under ctx. The service is up only
// when every dependency is up.
func (r *Registry) CheckAll(ctx context.Context) ReadinessResponse {
	response := ReadinessResponse{Status: StatusUp}
	if len(r.checkers) == 0 {
		return response
	}

	response.Checks = make([]CheckResult, len(r.checkers))
	var g errgroup.Group
	for i, checker := range r.checkers {
		g.Go(func() error {
			response.Checks[i] = run(ctx, checker)
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range response.Checks {
		if res.Status == StatusDown {
			response.Status = StatusDown
		}
	}
	return response
}

func run(ctx context.Context, checker Checker) CheckResult {
	start := time.Now()
	res := checker.Check(ctx)
	return CheckResult{
		Name:       checker.Name(),
		Status:     res.Status,
		Message:    res.Message,
		DurationMS: time.Since(start).Milliseconds(),
	}
}
