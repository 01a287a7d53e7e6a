// Package system queries local resource usage.
package system

import (
	"context"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

type MemoryStats struct {
	TotalBytes uint64
	UsedBytes  uint64
}

type SysInfo interface {
	MemoryStats(ctx context.Context) (MemoryStats, error)
	// CPUPercent returns the average CPU usage across all cores since the
	// previous call, as a fraction in [0.0, 1.0].
	CPUPercent(ctx context.Context) (float32, error)
}

type realSystemInfo struct{}

func NewSystemInfo() SysInfo {
	return &realSystemInfo{}
}

func (s *realSystemInfo) MemoryStats(ctx context.Context) (MemoryStats, error) {
	stats, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemoryStats{}, err
	}
	return MemoryStats{
		TotalBytes: stats.Total,
		UsedBytes:  stats.Used,
	}, nil
}

func (s *realSystemInfo) CPUPercent(ctx context.Context) (float32, error) {
	// interval 0 measures against the previous call, the way a periodic
	// sampler wants it
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, nil
	}
	return float32(percents[0] / 100), nil
}
