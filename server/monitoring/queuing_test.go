package monitoring_test

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/nodewatch/nodewatch/server/monitoring"
	"github.com/nodewatch/nodewatch/share/logger"
	"github.com/nodewatch/nodewatch/share/models"
)

var queueTestLog = logger.NewLogger("measurement-queue", logger.LogOutput{File: os.Stdout}, logger.LogLevelDebug)

type MockSaver struct {
	count atomic.Int64
	slow  atomic.Bool
}

func (m *MockSaver) SaveMeasurement(ctx context.Context, measurement *models.Measurement) error {
	if m.slow.Load() {
		time.Sleep(time.Millisecond * 10)
	}
	m.count.Add(1)
	return nil
}

type QueuingTestSuite struct {
	suite.Suite
	q     monitoring.MeasurementSaver
	saver *MockSaver
}

func (suite *QueuingTestSuite) SetupTest() {
	suite.saver = &MockSaver{}
	suite.q = monitoring.NewMeasurementQueuing(queueTestLog, suite.saver, 16)
}

func (suite *QueuingTestSuite) TestEnqueue() {
	suite.NoError(suite.q.Enqueue(models.Measurement{}))
	suite.Eventually(func() bool { return suite.saver.count.Load() == 1 }, time.Second, time.Millisecond)
}

func (suite *QueuingTestSuite) TestSlowEnqueueDoesNotBlock() {
	suite.saver.slow.Store(true)
	start := time.Now()
	suite.NoError(suite.q.Enqueue(models.Measurement{}))
	suite.Less(time.Since(start), 5*time.Millisecond)
}

func (suite *QueuingTestSuite) TestEnqueueAfterClose() {
	suite.NoError(suite.q.Close())
	suite.Error(suite.q.Enqueue(models.Measurement{}))
	suite.Equal(int64(0), suite.saver.count.Load())
}

func (suite *QueuingTestSuite) TestFullQueue() {
	q := monitoring.NewMeasurementQueuing(queueTestLog, suite.saver, 0)
	suite.saver.slow.Store(true)

	// with no buffer and a busy writer at least one enqueue must be refused
	// rather than block the caller
	var sawFull bool
	for i := 0; i < 3; i++ {
		if err := q.Enqueue(models.Measurement{}); err != nil {
			sawFull = true
		}
	}
	suite.True(sawFull)
}

func TestMeasurementQueuingTestSuite(t *testing.T) {
	suite.Run(t, new(QueuingTestSuite))
}
