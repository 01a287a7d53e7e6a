// Package monitor samples local resource usage on a fixed interval and hands
// each sample to the sender.
package monitor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nodewatch/nodewatch/client/system"
	"github.com/nodewatch/nodewatch/share/logger"
	"github.com/nodewatch/nodewatch/share/models"
)

// Submitter takes finished samples for delivery to the server.
type Submitter interface {
	Submit(models.MetricRecord)
}

type Monitor struct {
	log       *logger.Logger
	sysInfo   system.SysInfo
	submitter Submitter
	agentID   uuid.UUID
	interval  time.Duration
}

func NewMonitor(log *logger.Logger, sysInfo system.SysInfo, submitter Submitter, agentID uuid.UUID, interval time.Duration) *Monitor {
	return &Monitor{
		log:       log,
		sysInfo:   sysInfo,
		submitter: submitter,
		agentID:   agentID,
		interval:  interval,
	}
}

func (m *Monitor) Interval() time.Duration {
	return m.interval
}

// Run samples until the context is canceled. The first CPU reading has no
// previous measurement to diff against, so one interval passes before the
// first sample is submitted.
func (m *Monitor) Run(ctx context.Context) error {
	// prime the CPU counters
	if _, err := m.sysInfo.CPUPercent(ctx); err != nil {
		m.log.Debugf("cannot prime cpu counters: %v", err)
	}

	tick := time.NewTicker(m.interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			m.log.Debugf("monitor stopped")
			return nil
		case <-tick.C:
			if record, ok := m.sample(ctx); ok {
				m.submitter.Submit(record)
			}
		}
	}
}

func (m *Monitor) sample(ctx context.Context) (models.MetricRecord, bool) {
	record := models.MetricRecord{AgentID: m.agentID}

	memStats, err := m.sysInfo.MemoryStats(ctx)
	if err != nil {
		m.log.Errorf("cannot measure memory: %v", err)
		return record, false
	}
	record.TotalMemoryBytes = memStats.TotalBytes
	record.UsedMemoryBytes = memStats.UsedBytes

	cpuPercent, err := m.sysInfo.CPUPercent(ctx)
	if err != nil {
		m.log.Errorf("cannot measure cpu: %v", err)
		return record, false
	}
	record.AverageCPU = cpuPercent

	return record, true
}
