package monitoring

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/nodewatch/nodewatch/share/logger"
	"github.com/nodewatch/nodewatch/share/models"
)

const (
	QueueLoggerName  = "measurements-queue"
	DefaultQueueSize = 10000
)

var ErrQueueFull = errors.New("measurement queue is full")

type saver interface {
	SaveMeasurement(ctx context.Context, measurement *models.Measurement) error
}

// MeasurementSaver decouples ingest connections from SQLite write latency:
// Enqueue hands the measurement to a single background writer and returns
// immediately. Write failures are logged by the writer, matching the policy
// that storage errors never alter protocol-level connection state.
type MeasurementSaver interface {
	Enqueue(models.Measurement) error
	Close() error
}

type queue struct {
	saver    saver
	queue    chan models.Measurement
	closed   atomic.Bool
	ctx      context.Context
	cancelFn context.CancelFunc
	done     chan struct{}
	logger   *logger.Logger
}

func NewMeasurementQueuing(logger *logger.Logger, saver saver, queueSize int) MeasurementSaver {
	ctx, cancelFn := context.WithCancel(context.Background())
	q := &queue{
		saver:    saver,
		queue:    make(chan models.Measurement, queueSize),
		ctx:      ctx,
		cancelFn: cancelFn,
		done:     make(chan struct{}),
		logger:   logger,
	}
	go q.process()
	return q
}

func (q *queue) Enqueue(measurement models.Measurement) error {
	if q.closed.Load() {
		return errors.New("measurement queue is closed")
	}
	select {
	case q.queue <- measurement:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *queue) Close() error {
	q.closed.Store(true)
	q.cancelFn()
	close(q.queue)
	<-q.done
	return nil
}

func (q *queue) process() {
	for m := range q.queue {
		if q.closed.Load() {
			continue
		}
		if err := q.saver.SaveMeasurement(q.ctx, &m); err != nil {
			q.logger.Errorf("Failed to save measurement for agent %s: %s", m.AgentID, err)
		}
	}
	close(q.done)
}
