package monitoring

import (
	"context"
	"time"

	"github.com/nodewatch/nodewatch/share/models"
	"github.com/nodewatch/nodewatch/share/query"
)

// Service is the persistence boundary for decoded measurements. Saving is an
// independent append per call; the service tolerates concurrent callers and
// never retries on behalf of the ingestion core.
type Service interface {
	SaveMeasurement(ctx context.Context, measurement *models.Measurement) error
	DeleteMeasurementsOlderThan(ctx context.Context, period time.Duration) (int64, error)
	GetAgentLatest(ctx context.Context, agentID string) (*models.Measurement, error)
	ListAgentMetrics(ctx context.Context, agentID string, lo *query.ListOptions) ([]models.Measurement, error)
	ListAgents(ctx context.Context) ([]models.AgentSummary, error)
}

type monitoringService struct {
	DBProvider DBProvider
}

func NewService(dbProvider DBProvider) Service {
	return &monitoringService{DBProvider: dbProvider}
}

func (s *monitoringService) SaveMeasurement(ctx context.Context, measurement *models.Measurement) error {
	return s.DBProvider.CreateMeasurement(ctx, measurement)
}

func (s *monitoringService) DeleteMeasurementsOlderThan(ctx context.Context, period time.Duration) (int64, error) {
	compare := time.Now().Add(-period).Unix()
	return s.DBProvider.DeleteMeasurementsOlderThan(ctx, compare)
}

func (s *monitoringService) GetAgentLatest(ctx context.Context, agentID string) (*models.Measurement, error) {
	return s.DBProvider.GetAgentLatest(ctx, agentID)
}

func (s *monitoringService) ListAgentMetrics(ctx context.Context, agentID string, lo *query.ListOptions) ([]models.Measurement, error) {
	return s.DBProvider.ListByAgentID(ctx, agentID, lo)
}

func (s *monitoringService) ListAgents(ctx context.Context) ([]models.AgentSummary, error) {
	return s.DBProvider.ListAgents(ctx)
}
