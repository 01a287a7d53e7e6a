package monitoring

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	measurements "github.com/nodewatch/nodewatch/db/migration/measurements"
	"github.com/nodewatch/nodewatch/db/sqlite"
	"github.com/nodewatch/nodewatch/share/logger"
	"github.com/nodewatch/nodewatch/share/models"
	"github.com/nodewatch/nodewatch/share/query"
)

type DBProvider interface {
	CreateMeasurement(ctx context.Context, measurement *models.Measurement) error
	DeleteMeasurementsOlderThan(ctx context.Context, compare int64) (int64, error)
	GetAgentLatest(ctx context.Context, agentID string) (*models.Measurement, error)
	ListByAgentID(ctx context.Context, agentID string, lo *query.ListOptions) ([]models.Measurement, error)
	ListAgents(ctx context.Context) ([]models.AgentSummary, error)
	Close() error
	DB() *sqlx.DB
}

type SqliteProvider struct {
	db     *sqlx.DB
	logger *logger.Logger
}

func NewSqliteProvider(dbPath string, options sqlite.DataSourceOptions, logger *logger.Logger) (DBProvider, error) {
	db, err := sqlite.New(dbPath, measurements.AssetNames(), measurements.Asset, options)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create measurements DB instance")
	}

	logger.Infof("initialized database at %s", dbPath)

	return &SqliteProvider{db: db, logger: logger}, nil
}

func (p *SqliteProvider) CreateMeasurement(ctx context.Context, measurement *models.Measurement) error {
	_, err := p.db.NamedExecContext(
		ctx,
		"INSERT INTO measurements (agent_id, timestamp, total_memory_bytes, used_memory_bytes, average_cpu) "+
			"VALUES (:agent_id, :timestamp, :total_memory_bytes, :used_memory_bytes, :average_cpu)",
		measurement,
	)
	return err
}

func (p *SqliteProvider) DeleteMeasurementsOlderThan(ctx context.Context, compare int64) (int64, error) {
	result, err := p.db.ExecContext(ctx, "DELETE FROM measurements WHERE timestamp < ?", compare)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (p *SqliteProvider) GetAgentLatest(ctx context.Context, agentID string) (*models.Measurement, error) {
	var m models.Measurement
	err := p.db.GetContext(ctx, &m,
		"SELECT * FROM measurements WHERE agent_id = ? ORDER BY timestamp DESC LIMIT 1", agentID)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (p *SqliteProvider) ListByAgentID(ctx context.Context, agentID string, lo *query.ListOptions) ([]models.Measurement, error) {
	q := "SELECT * FROM measurements WHERE agent_id = ?"
	q, params := query.ConvertListOptionsToQuery(lo, q)

	val := []models.Measurement{}
	err := p.db.SelectContext(ctx, &val, q, append([]interface{}{agentID}, params...)...)
	return val, err
}

func (p *SqliteProvider) ListAgents(ctx context.Context) ([]models.AgentSummary, error) {
	val := []models.AgentSummary{}
	err := p.db.SelectContext(ctx, &val,
		"SELECT agent_id, MAX(timestamp) AS last_seen FROM measurements GROUP BY agent_id ORDER BY agent_id")
	return val, err
}

func (p *SqliteProvider) Close() error {
	return p.db.Close()
}

func (p *SqliteProvider) DB() *sqlx.DB {
	return p.db
}
