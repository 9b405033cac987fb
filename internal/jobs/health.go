package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tvkcanada/tvk-be/internal/services"
)

const (
	highMemoryThreshold = 90.0
	alertCooldown       = 15 * time.Minute
)

// HealthCheck samples host metrics and raises a warning activity when memory runs high.
type HealthCheck struct {
	stats    services.StatsServiceProvider
	activity services.ActivityServiceProvider
	now      func() time.Time

	mu        sync.Mutex
	lastAlert time.Time
}

// NewHealthCheck creates a new HealthCheck.
func NewHealthCheck(stats services.StatsServiceProvider, activity services.ActivityServiceProvider) *HealthCheck {
	return &HealthCheck{stats: stats, activity: activity, now: time.Now}
}

// Run is the system-health job.
func (h *HealthCheck) Run(ctx context.Context) (string, error) {
	sys, err := h.stats.System(ctx)
	if err != nil {
		return "", err
	}
	summary := fmt.Sprintf("memory %.1f%%, cpu %.1f%%", sys.MemoryPercent, sys.CPUPercent)
	if sys.MemoryPercent > highMemoryThreshold {
		h.alert(ctx, sys.MemoryPercent)
	}
	return summary, nil
}

func (h *HealthCheck) alert(ctx context.Context, percent float64) {
	h.mu.Lock()
	now := h.now()
	if !h.lastAlert.IsZero() && now.Sub(h.lastAlert) < alertCooldown {
		h.mu.Unlock()
		return
	}
	h.lastAlert = now
	h.mu.Unlock()

	msg := fmt.Sprintf("High memory usage (%.1f%%) detected on the API host.", percent)
	h.activity.Record(ctx, "system.alert.memory", services.LevelWarn, msg, nil)
}
