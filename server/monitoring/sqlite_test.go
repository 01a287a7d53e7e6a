package monitoring

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodewatch/nodewatch/db/sqlite"
	"github.com/nodewatch/nodewatch/share/logger"
	"github.com/nodewatch/nodewatch/share/models"
	"github.com/nodewatch/nodewatch/share/query"
)

var testLog = logger.NewLogger("monitoring", logger.LogOutput{File: os.Stdout}, logger.LogLevelDebug)

var measurementStart = time.Date(2021, time.September, 1, 0, 0, 0, 0, time.UTC).Unix()

const measurementInterval int64 = 60

var testData = []models.Measurement{
	{
		AgentID:          "0a5ff272-0b64-4f88-867a-33a21c517c6e",
		Timestamp:        measurementStart,
		TotalMemoryBytes: 8589934592,
		UsedMemoryBytes:  2147483648,
		AverageCPU:       0.10,
	},
	{
		AgentID:          "0a5ff272-0b64-4f88-867a-33a21c517c6e",
		Timestamp:        measurementStart + measurementInterval,
		TotalMemoryBytes: 8589934592,
		UsedMemoryBytes:  3221225472,
		AverageCPU:       0.15,
	},
	{
		AgentID:          "0a5ff272-0b64-4f88-867a-33a21c517c6e",
		Timestamp:        measurementStart + 2*measurementInterval,
		TotalMemoryBytes: 8589934592,
		UsedMemoryBytes:  4294967296,
		AverageCPU:       0.20,
	},
}

func newTestProvider(t *testing.T) DBProvider {
	t.Helper()
	provider, err := NewSqliteProvider(":memory:", sqlite.DataSourceOptions{}, testLog)
	require.NoError(t, err)
	t.Cleanup(func() { provider.Close() })

	ctx := context.Background()
	for i := range testData {
		require.NoError(t, provider.CreateMeasurement(ctx, &testData[i]))
	}
	return provider
}

func TestCreateAndGetLatest(t *testing.T) {
	provider := newTestProvider(t)
	ctx := context.Background()

	now := time.Now().Unix()
	m := &models.Measurement{
		AgentID:          "c1e2700a-7160-4b9a-b24c-a29ed1fb7171",
		Timestamp:        now,
		TotalMemoryBytes: 17179869184,
		UsedMemoryBytes:  1073741824,
		AverageCPU:       0.01,
	}
	require.NoError(t, provider.CreateMeasurement(ctx, m))

	latest, err := provider.GetAgentLatest(ctx, testData[0].AgentID)
	require.NoError(t, err)
	assert.Equal(t, measurementStart+2*measurementInterval, latest.Timestamp)
	assert.Equal(t, testData[2], *latest)

	latest, err = provider.GetAgentLatest(ctx, m.AgentID)
	require.NoError(t, err)
	assert.Equal(t, *m, *latest)
}

func TestListByAgentID(t *testing.T) {
	provider := newTestProvider(t)
	ctx := context.Background()

	lo := &query.ListOptions{
		Sorts: []query.SortOption{{Column: "timestamp", IsASC: false}},
		Filters: []query.FilterOption{
			{Column: "timestamp", Operator: query.FilterOperatorTypeGT, Values: []string{"0"}},
		},
		Pagination: &query.Pagination{Limit: "2", Offset: "0"},
	}

	got, err := provider.ListByAgentID(ctx, testData[0].AgentID, lo)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, testData[2], got[0])
	assert.Equal(t, testData[1], got[1])
}

func TestListAgents(t *testing.T) {
	provider := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, provider.CreateMeasurement(ctx, &models.Measurement{
		AgentID:   "c1e2700a-7160-4b9a-b24c-a29ed1fb7171",
		Timestamp: measurementStart + 10,
	}))

	agents, err := provider.ListAgents(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.Equal(t, testData[0].AgentID, agents[0].AgentID)
	assert.Equal(t, measurementStart+2*measurementInterval, agents[0].LastSeen)
	assert.Equal(t, "c1e2700a-7160-4b9a-b24c-a29ed1fb7171", agents[1].AgentID)
	assert.Equal(t, measurementStart+10, agents[1].LastSeen)
}

func TestDeleteMeasurementsOlderThan(t *testing.T) {
	provider := newTestProvider(t)
	ctx := context.Background()

	deleted, err := provider.DeleteMeasurementsOlderThan(ctx, measurementStart+2*measurementInterval)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	got, err := provider.ListByAgentID(ctx, testData[0].AgentID, &query.ListOptions{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, testData[2], got[0])
}

func TestServiceRetention(t *testing.T) {
	provider := newTestProvider(t)
	service := NewService(provider)
	ctx := context.Background()

	// everything in testData is years old
	deleted, err := service.DeleteMeasurementsOlderThan(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
}
