package scheduler

import (
	"context"
	"time"

	"github.com/nodewatch/nodewatch/share/logger"
)

type Task interface {
	Run(ctx context.Context) error
}

// Run executes the task once right away and then periodically with the given
// interval, until the context is canceled.
func Run(ctx context.Context, log *logger.Logger, task Task, interval time.Duration) {
	run := func() {
		log.Debugf("task started")
		if err := task.Run(ctx); err != nil {
			log.Errorf("finished with an error: %v.", err)
		}
		log.Debugf("task finished")
	}

	run()

	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			run()
		case <-ctx.Done():
			log.Debugf("task stopped")
			return
		}
	}
}
