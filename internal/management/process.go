package management

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KevinTCoughlin/moria-server-manager/internal/platform"
)

// ErrNotRunning is returned by GetProcessStats when no server process exists.
var ErrNotRunning = errors.New("server not running")

// ProcessStats holds resource usage info for the server process.
type ProcessStats struct {
	PID    int32
	Memory string
	CPU    string
	Uptime time.Duration
	Count  int
}

// GetProcessStats finds the server process and returns its stats. When
// several instances run, the first one reported is described and Count
// holds the total.
func GetProcessStats(ctx context.Context, procs platform.ProcessTable) (ProcessStats, error) {
	found, err := procs.FindByName(ctx, ProcessName)
	if err != nil {
		return ProcessStats{}, fmt.Errorf("listing processes: %w", err)
	}
	if len(found) == 0 {
		return ProcessStats{}, ErrNotRunning
	}

	p := found[0]
	stats := ProcessStats{
		PID:    p.PID,
		Memory: fmt.Sprintf("%d MB", p.RSS/(1024*1024)),
		CPU:    fmt.Sprintf("%.1f%%", p.CPUPercent),
		Count:  len(found),
	}
	if !p.StartedAt.IsZero() {
		stats.Uptime = time.Since(p.StartedAt).Truncate(time.Second)
	}
	return stats, nil
}
