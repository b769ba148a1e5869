package application

import (
	"context"

	"github.com/dronedb/ddb/internal/ports/input"
)

// HealthService implements input.HealthChecker over the single
// working tree a `ddb serve` process holds open.
type HealthService struct {
	tree input.WorkingTree
}

// NewHealthService builds a HealthService over the currently open working
// tree. tree may be nil before a tree has been opened, in which case the
// service reports healthy-but-not-ready.
func NewHealthService(tree input.WorkingTree) *HealthService {
	return &HealthService{tree: tree}
}

// IsHealthy always reports true once the process is up: there is no
// external dependency (database, network service) whose failure should
// take the whole process down rather than a single operation.
func (s *HealthService) IsHealthy(_ context.Context) bool {
	return true
}

// IsReady reports whether a working tree is open and can answer queries.
func (s *HealthService) IsReady(ctx context.Context) bool {
	if s.tree == nil {
		return false
	}
	if _, err := s.tree.List(ctx, ""); err != nil {
		return false
	}
	return true
}

// GetStatus returns detailed status information about the open tree.
func (s *HealthService) GetStatus(ctx context.Context) input.Status {
	components := map[string]string{
		"store": "ok",
	}

	if s.tree == nil {
		components["store"] = "not-open"
		return input.Status{
			Healthy:    s.IsHealthy(ctx),
			Ready:      false,
			Components: components,
		}
	}

	entries, err := s.tree.List(ctx, "")
	if err != nil {
		components["store"] = "error: " + err.Error()
		return input.Status{
			Healthy:    s.IsHealthy(ctx),
			Ready:      false,
			Components: components,
		}
	}

	return input.Status{
		Healthy:    s.IsHealthy(ctx),
		Ready:      true,
		EntryCount: len(entries),
		Components: components,
	}
}

var _ input.HealthChecker = (*HealthService)(nil)
