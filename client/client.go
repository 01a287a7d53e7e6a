// Package chclient implements the nodewatch agent: it samples local memory
// and CPU usage on an interval and streams the measurements to a nodewatch
// server over TCP.
package chclient

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/nodewatch/nodewatch/client/identity"
	"github.com/nodewatch/nodewatch/client/monitor"
	"github.com/nodewatch/nodewatch/client/sender"
	"github.com/nodewatch/nodewatch/client/system"
	"github.com/nodewatch/nodewatch/share/logger"
)

type Client struct {
	log     *logger.Logger
	monitor *monitor.Monitor
	sender  *sender.Sender
}

func NewClient(cfg *Config) (*Client, error) {
	log := logger.NewLogger("client", cfg.Logging.LogOutput, cfg.Logging.LogLevel)

	agentID, err := identity.GetOrCreateID(cfg.Client.DataDir, log.Fork("identity"))
	if err != nil {
		return nil, err
	}
	log.Infof("agent id: %s", agentID)

	snd := sender.NewSender(log.Fork("sender"), sender.Config{
		ServerAddress:    cfg.Client.ServerAddress,
		MaxPending:       cfg.Client.MaxPending,
		AckTimeout:       cfg.Client.AckTimeout,
		MaxRetryInterval: cfg.Client.MaxRetryInterval,
	})
	mon := monitor.NewMonitor(log.Fork("monitor"), system.NewSystemInfo(), snd, agentID, cfg.Client.Interval)

	return &Client{
		log:     log,
		monitor: mon,
		sender:  snd,
	}, nil
}

// Run samples and delivers measurements until the context is canceled.
func (c *Client) Run(ctx context.Context) error {
	c.log.Infof("monitoring every %s", c.monitor.Interval())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.monitor.Run(ctx)
	})
	g.Go(func() error {
		return c.sender.Run(ctx)
	})
	return g.Wait()
}
