package protocol

import (
	"github.com/nodewatch/nodewatch/share/models"
)

// Framer reassembles whole envelopes from an arbitrarily chunked byte stream.
// A single read may deliver anything from a fragment of one envelope to
// several envelopes back to back; Feed accumulates and Next hands out one
// decoded record at a time.
//
// A Framer belongs to exactly one connection and is not safe for concurrent
// use.
type Framer struct {
	buf []byte
}

func NewFramer() *Framer {
	return &Framer{}
}

// Feed appends freshly read stream bytes to the accumulation buffer.
func (f *Framer) Feed(p []byte) {
	f.buf = append(f.buf, p...)
}

// Next attempts to decode one envelope from the front of the buffer.
//
// On success exactly the consumed bytes are dropped and any remainder (the
// start of the next envelope) is kept for the following call. ErrIncomplete
// means no whole envelope is buffered yet: feed more bytes and call again.
// Any other error is fatal for the stream; nothing is consumed and the caller
// decides whether to terminate the connection.
func (f *Framer) Next() (timestamp uint32, record models.MetricRecord, err error) {
	timestamp, record, consumed, err := DecodeV1(f.buf)
	if err != nil {
		return 0, record, err
	}
	f.buf = f.buf[:copy(f.buf, f.buf[consumed:])]
	return timestamp, record, nil
}

// Buffered reports how many unconsumed bytes are currently accumulated. A
// non-zero value at stream close means the peer disappeared mid-envelope.
func (f *Framer) Buffered() int {
	return len(f.buf)
}
