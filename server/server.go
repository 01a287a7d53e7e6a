// Package chserver wires the nodewatch server components together: the
// ingest listener receiving agent submissions, the measurement store, the
// retention cleanup task and the read-side HTTP API.
package chserver

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/nodewatch/nodewatch/db/sqlite"
	"github.com/nodewatch/nodewatch/server/ingest"
	"github.com/nodewatch/nodewatch/server/monitoring"
	"github.com/nodewatch/nodewatch/server/scheduler"
	"github.com/nodewatch/nodewatch/share/logger"
	"github.com/nodewatch/nodewatch/share/models"
)

type Server struct {
	cfg      *Config
	log      *logger.Logger
	provider monitoring.DBProvider
	service  monitoring.Service
	queue    monitoring.MeasurementSaver
	ingest   *ingest.Listener
	api      *APIListener
	cleanup  *monitoring.CleanupTask
}

// serviceSink stores measurements synchronously; a failed insert is surfaced
// to the connection handler as a storage error.
type serviceSink struct {
	service monitoring.Service
}

func (s serviceSink) Store(ctx context.Context, m *models.Measurement) error {
	return s.service.SaveMeasurement(ctx, m)
}

// queueSink accepts measurements into the write queue; the envelope is
// acknowledged as soon as the queue takes it.
type queueSink struct {
	queue monitoring.MeasurementSaver
}

func (s queueSink) Store(ctx context.Context, m *models.Measurement) error {
	return s.queue.Enqueue(*m)
}

func NewServer(cfg *Config) (*Server, error) {
	log := logger.NewLogger("server", cfg.Logging.LogOutput, cfg.Logging.LogLevel)

	provider, err := monitoring.NewSqliteProvider(
		cfg.Database.Path,
		sqlite.DataSourceOptions{WALEnabled: cfg.Database.WALEnabled},
		log.Fork("db"),
	)
	if err != nil {
		return nil, err
	}

	service := monitoring.NewService(provider)

	s := &Server{
		cfg:      cfg,
		log:      log,
		provider: provider,
		service:  service,
		cleanup:  monitoring.NewCleanupTask(log.Fork("cleanup"), service, cfg.Monitoring.Retention),
	}

	var sink ingest.Sink
	if cfg.Server.AsyncWrites {
		s.queue = monitoring.NewMeasurementQueuing(log.Fork(monitoring.QueueLoggerName), service, cfg.Server.QueueSize)
		sink = queueSink{queue: s.queue}
	} else {
		sink = serviceSink{service: service}
	}

	s.ingest = ingest.NewListener(cfg.Server.ListenAddress, sink, log.Fork("ingest"), cfg.Server.IdleTimeout)

	if cfg.API.Address != "" {
		s.api = NewAPIListener(log.Fork("api"), service, cfg.API.Address)
	}

	return s, nil
}

// Run blocks until the context is canceled or a component fails.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.ingest.Run(ctx)
	})
	if s.api != nil {
		g.Go(func() error {
			return s.api.Run(ctx)
		})
	}
	g.Go(func() error {
		scheduler.Run(ctx, s.log.Fork("scheduler"), s.cleanup, s.cfg.Monitoring.CleanupInterval)
		return nil
	})

	err := g.Wait()

	var result error
	if err != nil && err != context.Canceled {
		result = multierror.Append(result, err)
	}
	if s.queue != nil {
		if err := s.queue.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := s.provider.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result
}
