package ingest

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/nodewatch/nodewatch/share/logger"
	"github.com/nodewatch/nodewatch/share/models"
	"github.com/nodewatch/nodewatch/share/protocol"
)

const readBufferSize = 4096

// connHandler owns one agent connection: it reads stream chunks, feeds the
// framer, stores decoded measurements in arrival order, and acknowledges
// each stored envelope.
type connHandler struct {
	conn        net.Conn
	sink        Sink
	log         *logger.Logger
	idleTimeout time.Duration
	framer      *protocol.Framer
}

func newConnHandler(conn net.Conn, sink Sink, log *logger.Logger, idleTimeout time.Duration) *connHandler {
	return &connHandler{
		conn:        conn,
		sink:        sink,
		log:         log,
		idleTimeout: idleTimeout,
		framer:      protocol.NewFramer(),
	}
}

func (h *connHandler) handle(ctx context.Context) {
	defer h.conn.Close()
	h.log.Debugf("connection opened")

	buf := make([]byte, readBufferSize)
	for {
		if h.idleTimeout > 0 {
			if err := h.conn.SetReadDeadline(time.Now().Add(h.idleTimeout)); err != nil {
				h.log.Errorf("failed to set read deadline: %v", err)
				return
			}
		}

		n, readErr := h.conn.Read(buf)
		if n > 0 {
			h.framer.Feed(buf[:n])
			if err := h.drain(ctx); err != nil {
				h.log.Errorf("terminating connection: %v", err)
				return
			}
		}
		if readErr != nil {
			h.logClose(readErr)
			return
		}
	}
}

// drain decodes every whole envelope currently buffered. A fatal decode error
// terminates only this connection; a storage failure is logged, the envelope
// goes unacknowledged and the connection keeps framing subsequent envelopes.
func (h *connHandler) drain(ctx context.Context) error {
	for {
		timestamp, record, err := h.framer.Next()
		if errors.Is(err, protocol.ErrIncomplete) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "fatal decode error")
		}

		measurement := models.NewMeasurement(timestamp, record)
		if err := h.sink.Store(ctx, measurement); err != nil {
			h.log.Errorf("failed to store measurement from agent %s: %v", measurement.AgentID, err)
			continue
		}
		h.log.Debugf("stored measurement from agent %s (ts=%d)", measurement.AgentID, measurement.Timestamp)

		if _, err := h.conn.Write(protocol.EncodeAckV1(protocol.AckAccepted)); err != nil {
			return errors.Wrap(err, "failed to write ack")
		}
	}
}

func (h *connHandler) logClose(readErr error) {
	if h.framer.Buffered() > 0 {
		// stream ended mid-envelope; a termination condition, not corruption
		h.log.Infof("%v: %d bytes discarded", protocol.ErrConnectionClosed, h.framer.Buffered())
		return
	}
	if errors.Is(readErr, io.EOF) {
		h.log.Debugf("connection closed by agent")
		return
	}
	h.log.Debugf("connection closed: %v", readErr)
}
