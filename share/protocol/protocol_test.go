package protocol

import (
	"encoding/binary"
	"hash/crc32"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodewatch/nodewatch/share/models"
)

var testRecord = models.MetricRecord{
	AgentID:          uuid.MustParse("00000000-0000-0000-0000-000000000001"),
	TotalMemoryBytes: 8589934592,
	UsedMemoryBytes:  4294967296,
	AverageCPU:       0.65,
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	before := uint32(time.Now().Unix())
	encoded := EncodeV1(testRecord)
	after := uint32(time.Now().Unix())

	timestamp, record, consumed, err := DecodeV1(encoded)
	require.NoError(t, err)
	assert.Equal(t, len(encoded), consumed)
	assert.Equal(t, testRecord, record)
	assert.GreaterOrEqual(t, timestamp, before)
	assert.LessOrEqual(t, timestamp, after)
}

func TestDecodeEmptyRecord(t *testing.T) {
	_, record, _, err := DecodeV1(EncodeV1(models.MetricRecord{}))
	require.NoError(t, err)
	assert.Equal(t, models.MetricRecord{}, record)
}

func TestDecodeTruncated(t *testing.T) {
	encoded := EncodeV1(testRecord)
	for i := 0; i < len(encoded); i++ {
		_, _, _, err := DecodeV1(encoded[:i])
		require.ErrorIs(t, err, ErrIncomplete, "prefix of %d bytes", i)
	}
}

func TestDecodeCorruptedPayload(t *testing.T) {
	// Flipping any single bit in the payload region must be caught by the
	// checksum.
	for byteIdx := headerSize; byteIdx < headerSize+payloadSizeV1; byteIdx++ {
		for bit := 0; bit < 8; bit++ {
			encoded := EncodeV1(testRecord)
			encoded[byteIdx] ^= 1 << bit
			_, _, _, err := DecodeV1(encoded)
			require.ErrorIs(t, err, ErrChecksumMismatch, "byte %d bit %d", byteIdx, bit)
		}
	}
}

func TestDecodeWrongMagic(t *testing.T) {
	encoded := EncodeV1(testRecord)
	binary.BigEndian.PutUint16(encoded[0:2], 4321)
	_, _, _, err := DecodeV1(encoded)
	assert.ErrorIs(t, err, ErrProtocolMismatch)
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	// A valid checksum must not rescue an envelope with the wrong version.
	encoded := EncodeV1(testRecord)
	binary.BigEndian.PutUint16(encoded[2:4], 2)
	_, _, _, err := DecodeV1(encoded)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestDecodeDeclaredLengthExceedsBuffer(t *testing.T) {
	// payload_length declares 40 bytes but only 30 are available: the decoder
	// must wait for more bytes, not attempt checksum verification.
	encoded := EncodeV1(testRecord)
	binary.BigEndian.PutUint32(encoded[8:12], 40)
	_, _, _, err := DecodeV1(encoded[:headerSize+30])
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestDecodeMalformedPayload(t *testing.T) {
	// A structurally wrong payload size with a matching checksum passes the
	// integrity check but fails deserialization.
	payload := []byte("twenty-byte-payload!")
	buf := make([]byte, headerSize+len(payload)+trailerSize)
	binary.BigEndian.PutUint16(buf[0:2], MagicNumber)
	binary.BigEndian.PutUint16(buf[2:4], Version1)
	binary.BigEndian.PutUint32(buf[4:8], uint32(time.Now().Unix()))
	binary.BigEndian.PutUint32(buf[8:12], uint32(len(payload)))
	copy(buf[headerSize:], payload)
	binary.BigEndian.PutUint32(buf[headerSize+len(payload):], crc32.ChecksumIEEE(payload))

	_, _, _, err := DecodeV1(buf)
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestDecodeOversizedDeclaredLength(t *testing.T) {
	encoded := EncodeV1(testRecord)
	binary.BigEndian.PutUint32(encoded[8:12], maxPayloadSize+1)
	_, _, _, err := DecodeV1(encoded)
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestAckRoundTrip(t *testing.T) {
	status, err := DecodeAckV1(EncodeAckV1(AckAccepted))
	require.NoError(t, err)
	assert.Equal(t, AckAccepted, status)
}

func TestAckDecodeErrors(t *testing.T) {
	_, err := DecodeAckV1(EncodeAckV1(AckAccepted)[:5])
	assert.ErrorIs(t, err, ErrIncomplete)

	bad := EncodeAckV1(AckAccepted)
	binary.BigEndian.PutUint16(bad[0:2], 9999)
	_, err = DecodeAckV1(bad)
	assert.ErrorIs(t, err, ErrProtocolMismatch)

	bad = EncodeAckV1(AckAccepted)
	binary.BigEndian.PutUint16(bad[2:4], 7)
	_, err = DecodeAckV1(bad)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}
