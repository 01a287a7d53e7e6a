// Package ingest accepts agent connections and drives the submission
// protocol: framing, decoding, and handing decoded measurements to the store.
package ingest

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/nodewatch/nodewatch/share/logger"
	"github.com/nodewatch/nodewatch/share/models"
)

// Sink receives every successfully decoded measurement. Implementations must
// tolerate concurrent calls from many connection handlers; each call is an
// independent append. The listener never retries a failed store.
type Sink interface {
	Store(ctx context.Context, measurement *models.Measurement) error
}

type Listener struct {
	addr        string
	sink        Sink
	log         *logger.Logger
	idleTimeout time.Duration

	mu       sync.Mutex
	listener net.Listener
	active   map[net.Conn]struct{}
	wg       sync.WaitGroup
}

// NewListener returns an ingest listener bound to addr once Run is called.
// idleTimeout of zero disables the per-read deadline.
func NewListener(addr string, sink Sink, log *logger.Logger, idleTimeout time.Duration) *Listener {
	return &Listener{
		addr:        addr,
		sink:        sink,
		log:         log,
		idleTimeout: idleTimeout,
		active:      map[net.Conn]struct{}{},
	}
}

// Run accepts connections until the context is canceled. Every accepted
// connection gets its own goroutine and its own framer; no decode state is
// shared between connections, so a protocol failure on one connection cannot
// affect any other.
func (l *Listener) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", l.addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", l.addr)
	}
	l.mu.Lock()
	l.listener = listener
	l.mu.Unlock()

	l.log.Infof("listening for agent connections on %s", listener.Addr())

	go func() {
		<-ctx.Done()
		l.close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			// closed by ctx cancellation
			if ctx.Err() != nil {
				l.wg.Wait()
				return nil
			}
			return errors.Wrap(err, "accept failed")
		}

		l.track(conn)
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			defer l.untrack(conn)
			handler := newConnHandler(conn, l.sink, l.log.Fork("conn: %s", conn.RemoteAddr()), l.idleTimeout)
			handler.handle(ctx)
		}()
	}
}

// Addr returns the bound address, nil before Run.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.listener == nil {
		return nil
	}
	return l.listener.Addr()
}

func (l *Listener) track(conn net.Conn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active[conn] = struct{}{}
}

func (l *Listener) untrack(conn net.Conn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.active, conn)
}

func (l *Listener) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.listener != nil {
		_ = l.listener.Close()
	}
	for conn := range l.active {
		_ = conn.Close()
	}
}
