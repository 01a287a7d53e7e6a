// Package protocol implements the binary submission protocol spoken between
// nodewatch agents and the server's ingest listener.
//
// Envelope layout, all integers big-endian:
//
//	offset 0  magic          uint16
//	offset 2  version        uint16
//	offset 4  timestamp      uint32  unix seconds, stamped by the sender
//	offset 8  payload_length uint32
//	offset 12 payload        payload_length bytes
//	then      checksum       uint32  CRC32 (IEEE) over the payload bytes only
package protocol

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"math"
	"time"

	"github.com/nodewatch/nodewatch/share/models"
)

const (
	// MagicNumber identifies the protocol family. It is checked before any
	// other field of a received envelope.
	MagicNumber uint16 = 1234

	// Version1 is the only protocol version this implementation speaks.
	// Envelopes carrying any other version are rejected, never coerced.
	Version1 uint16 = 1

	headerSize  = 12
	trailerSize = 4

	// payloadSizeV1 is the exact serialized size of a v1 MetricRecord:
	// 16 bytes agent id, two uint64 memory counters, one float32.
	payloadSizeV1 = 36

	// maxPayloadSize caps the declared payload length so a corrupt or hostile
	// length field cannot make the framer buffer without bound.
	maxPayloadSize = 1 << 16
)

var (
	// ErrIncomplete means the buffer does not yet hold a whole envelope. It is
	// the only non-fatal decode outcome: buffer more bytes and retry.
	ErrIncomplete = errors.New("incomplete envelope")

	// ErrProtocolMismatch means the magic field is wrong.
	ErrProtocolMismatch = errors.New("protocol mismatch")

	// ErrUnsupportedVersion means the version field names a version this
	// implementation does not speak.
	ErrUnsupportedVersion = errors.New("unsupported protocol version")

	// ErrChecksumMismatch means the payload failed CRC32 verification.
	ErrChecksumMismatch = errors.New("payload checksum mismatch")

	// ErrMalformedPayload means the checksum passed but the payload does not
	// deserialize into a structurally valid MetricRecord.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrConnectionClosed is reported by callers when a stream ends while a
	// partial envelope is still buffered. It is a termination condition, not
	// a corruption report.
	ErrConnectionClosed = errors.New("connection closed mid-envelope")
)

// EncodeV1 serializes a MetricRecord into a version 1 envelope, stamping the
// current time as the envelope timestamp. The result always round-trips
// through DecodeV1 as long as the bytes are unmodified.
func EncodeV1(record models.MetricRecord) []byte {
	return encodeV1At(record, uint32(time.Now().Unix()))
}

func encodeV1At(record models.MetricRecord, timestamp uint32) []byte {
	buf := make([]byte, headerSize+payloadSizeV1+trailerSize)

	binary.BigEndian.PutUint16(buf[0:2], MagicNumber)
	binary.BigEndian.PutUint16(buf[2:4], Version1)
	binary.BigEndian.PutUint32(buf[4:8], timestamp)
	binary.BigEndian.PutUint32(buf[8:12], payloadSizeV1)

	payload := buf[headerSize : headerSize+payloadSizeV1]
	copy(payload[0:16], record.AgentID[:])
	binary.BigEndian.PutUint64(payload[16:24], record.TotalMemoryBytes)
	binary.BigEndian.PutUint64(payload[24:32], record.UsedMemoryBytes)
	binary.BigEndian.PutUint32(payload[32:36], math.Float32bits(record.AverageCPU))

	binary.BigEndian.PutUint32(buf[headerSize+payloadSizeV1:], crc32.ChecksumIEEE(payload))
	return buf
}

// DecodeV1 decodes one envelope from the front of buf. On success it returns
// the sender-stamped timestamp, the record, and the number of bytes consumed.
//
// Checks run in a fixed order and short-circuit: header presence, magic,
// version, whole-frame presence, checksum, payload structure. ErrIncomplete
// means buf is a valid prefix so far and the caller should retry with more
// bytes; every other error is fatal and consumes nothing.
func DecodeV1(buf []byte) (timestamp uint32, record models.MetricRecord, consumed int, err error) {
	if len(buf) < headerSize {
		return 0, record, 0, ErrIncomplete
	}
	if binary.BigEndian.Uint16(buf[0:2]) != MagicNumber {
		return 0, record, 0, ErrProtocolMismatch
	}
	if binary.BigEndian.Uint16(buf[2:4]) != Version1 {
		return 0, record, 0, ErrUnsupportedVersion
	}

	payloadLen := binary.BigEndian.Uint32(buf[8:12])
	if payloadLen > maxPayloadSize {
		return 0, record, 0, ErrMalformedPayload
	}
	frameLen := headerSize + int(payloadLen) + trailerSize
	if len(buf) < frameLen {
		return 0, record, 0, ErrIncomplete
	}

	payload := buf[headerSize : headerSize+int(payloadLen)]
	checksum := binary.BigEndian.Uint32(buf[headerSize+int(payloadLen):])
	if crc32.ChecksumIEEE(payload) != checksum {
		return 0, record, 0, ErrChecksumMismatch
	}
	if int(payloadLen) != payloadSizeV1 {
		return 0, record, 0, ErrMalformedPayload
	}

	timestamp = binary.BigEndian.Uint32(buf[4:8])
	copy(record.AgentID[:], payload[0:16])
	record.TotalMemoryBytes = binary.BigEndian.Uint64(payload[16:24])
	record.UsedMemoryBytes = binary.BigEndian.Uint64(payload[24:32])
	record.AverageCPU = math.Float32frombits(binary.BigEndian.Uint32(payload[32:36]))
	return timestamp, record, frameLen, nil
}
