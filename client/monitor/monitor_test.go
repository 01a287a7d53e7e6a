package monitor

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodewatch/nodewatch/client/system"
	"github.com/nodewatch/nodewatch/share/logger"
	"github.com/nodewatch/nodewatch/share/models"
)

var testLog = logger.NewLogger("monitor-test", logger.LogOutput{File: os.Stdout}, logger.LogLevelDebug)

type fakeSysInfo struct {
	memErr error
	cpuErr error
}

func (s *fakeSysInfo) MemoryStats(ctx context.Context) (system.MemoryStats, error) {
	if s.memErr != nil {
		return system.MemoryStats{}, s.memErr
	}
	return system.MemoryStats{TotalBytes: 8589934592, UsedBytes: 4294967296}, nil
}

func (s *fakeSysInfo) CPUPercent(ctx context.Context) (float32, error) {
	if s.cpuErr != nil {
		return 0, s.cpuErr
	}
	return 0.65, nil
}

type fakeSubmitter struct {
	mu      sync.Mutex
	records []models.MetricRecord
}

func (f *fakeSubmitter) Submit(record models.MetricRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func TestMonitorSubmitsSamples(t *testing.T) {
	submitter := &fakeSubmitter{}
	agentID := uuid.MustParse("0a5ff272-0b64-4f88-867a-33a21c517c6e")
	m := NewMonitor(testLog, &fakeSysInfo{}, submitter, agentID, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = m.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return submitter.count() >= 3 }, time.Second, time.Millisecond)
	cancel()
	<-done

	submitter.mu.Lock()
	defer submitter.mu.Unlock()
	for _, record := range submitter.records {
		assert.Equal(t, agentID, record.AgentID)
		assert.Equal(t, uint64(8589934592), record.TotalMemoryBytes)
		assert.Equal(t, uint64(4294967296), record.UsedMemoryBytes)
		assert.Equal(t, float32(0.65), record.AverageCPU)
	}
}

func TestMonitorSkipsFailedSamples(t *testing.T) {
	submitter := &fakeSubmitter{}
	sysInfo := &fakeSysInfo{memErr: errors.New("no meminfo")}
	m := NewMonitor(testLog, sysInfo, submitter, uuid.New(), 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, m.Run(ctx))

	assert.Equal(t, 0, submitter.count())
}
