package maintenance

import (
	"context"
	"log/slog"
	"time"

	"bizbridge/gateway/pkg/artifacts"
	"bizbridge/gateway/pkg/session"
	"bizbridge/gateway/pkg/telemetry/metrics"
)

// Job names.
const (
	JobArtifactRetention = "artifact-retention"
	JobSessionSweep      = "session-sweep"
)

// ArtifactRetention returns a job that removes artifacts older than maxAge.
func ArtifactRetention(store *artifacts.Store, schedule string, maxAge time.Duration) Job {
	return Job{
		Name:     JobArtifactRetention,
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			removed, err := store.Prune(ctx, maxAge)
			if err != nil {
				return err
			}
			if removed > 0 {
				slog.InfoContext(ctx, "artifacts pruned", "removed", removed, "max_age", maxAge)
			}
			return nil
		},
	}
}

// SessionSweep returns a job that drops expired session cache entries.
func SessionSweep(cache *session.Cache, schedule string, m *metrics.Collector) Job {
	return Job{
		Name:     JobSessionSweep,
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			removed := cache.Sweep()
			m.RecordSessionSweep(removed)
			m.UpdateSessionEntries(cache.Len())
			if removed > 0 {
				slog.DebugContext(ctx, "session cache swept", "removed", removed, "remaining", cache.Len())
			}
			return nil
		},
	}
}
