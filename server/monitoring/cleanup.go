package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/nodewatch/nodewatch/share/logger"
)

type CleanupTask struct {
	log       *logger.Logger
	service   Service
	retention time.Duration
}

// NewCleanupTask returns a task to cleanup measurements after the configured
// retention period.
func NewCleanupTask(log *logger.Logger, service Service, retention time.Duration) *CleanupTask {
	return &CleanupTask{
		log:       log,
		service:   service,
		retention: retention,
	}
}

func (t *CleanupTask) Run(ctx context.Context) error {
	deletedRecords, err := t.service.DeleteMeasurementsOlderThan(ctx, t.retention)
	if err != nil {
		return fmt.Errorf("failed to cleanup measurements: %v", err)
	}
	t.log.Debugf("monitoring.CleanupTask: %d measurement records deleted", deletedRecords)
	return nil
}
