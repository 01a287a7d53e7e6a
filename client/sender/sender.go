// Package sender delivers encoded measurement envelopes to the server over a
// long-lived TCP connection, with reconnect backoff and at-least-once
// redelivery of unacknowledged envelopes.
package sender

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/jpillora/backoff"
	"github.com/pkg/errors"

	"github.com/nodewatch/nodewatch/share/logger"
	"github.com/nodewatch/nodewatch/share/models"
	"github.com/nodewatch/nodewatch/share/protocol"
)

const (
	DefaultMaxPending  = 600
	DefaultAckTimeout  = 10 * time.Second
	DefaultDialTimeout = 10 * time.Second
)

type Config struct {
	ServerAddress    string
	MaxPending       int
	AckTimeout       time.Duration
	DialTimeout      time.Duration
	MaxRetryInterval time.Duration
}

type Sender struct {
	log *logger.Logger
	cfg Config

	pending *queue
}

func NewSender(log *logger.Logger, cfg Config) *Sender {
	if cfg.MaxPending == 0 {
		cfg.MaxPending = DefaultMaxPending
	}
	if cfg.AckTimeout == 0 {
		cfg.AckTimeout = DefaultAckTimeout
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	return &Sender{
		log:     log,
		cfg:     cfg,
		pending: newQueue(cfg.MaxPending),
	}
}

// Submit encodes the record and queues the envelope for delivery. The
// timestamp is stamped here, at submission time, not at (re)transmission.
// When the queue is full the oldest envelope is dropped.
func (s *Sender) Submit(record models.MetricRecord) {
	if dropped := s.pending.push(protocol.EncodeV1(record)); dropped {
		s.log.Errorf("pending queue full, dropped oldest envelope")
	}
}

// Run delivers queued envelopes until the context is canceled. An envelope is
// removed from the queue only once the server acknowledged it; any failure
// closes the connection, keeps the envelope at the front of the queue and
// redials with backoff.
func (s *Sender) Run(ctx context.Context) error {
	b := &backoff.Backoff{Max: s.cfg.MaxRetryInterval}
	var conn net.Conn
	defer func() {
		if conn != nil {
			_ = conn.Close()
		}
	}()

	for {
		envelope, ok := s.pending.peek(ctx)
		if !ok {
			return nil
		}

		if conn == nil {
			conn = s.dial(ctx, b)
			if conn == nil {
				return nil
			}
		}

		if err := s.sendOne(conn, envelope); err != nil {
			s.log.Errorf("delivery failed, reconnecting: %v", err)
			_ = conn.Close()
			conn = nil
			if !sleepCtx(ctx, b.Duration()) {
				return nil
			}
			continue
		}

		s.pending.pop()
		b.Reset()
	}
}

// dial keeps trying until connected or the context is canceled.
func (s *Sender) dial(ctx context.Context, b *backoff.Backoff) net.Conn {
	for {
		conn, err := net.DialTimeout("tcp", s.cfg.ServerAddress, s.cfg.DialTimeout)
		if err == nil {
			s.log.Infof("connected to %s", s.cfg.ServerAddress)
			return conn
		}
		d := b.Duration()
		s.log.Errorf("cannot connect to %s: %v, retrying in %s", s.cfg.ServerAddress, err, d)
		if !sleepCtx(ctx, d) {
			return nil
		}
	}
}

func (s *Sender) sendOne(conn net.Conn, envelope []byte) error {
	if _, err := conn.Write(envelope); err != nil {
		return errors.Wrap(err, "write failed")
	}

	if err := conn.SetReadDeadline(time.Now().Add(s.cfg.AckTimeout)); err != nil {
		return errors.Wrap(err, "failed to set ack deadline")
	}
	buf := make([]byte, 8)
	if _, err := io.ReadFull(conn, buf); err != nil {
		return errors.Wrap(err, "no ack")
	}
	status, err := protocol.DecodeAckV1(buf)
	if err != nil {
		return errors.Wrap(err, "bad ack")
	}
	if status != protocol.AckAccepted {
		return errors.Errorf("server refused envelope with status %d", status)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
