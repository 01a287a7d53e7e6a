package protocol

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodewatch/nodewatch/share/models"
)

func testRecordN(n byte) models.MetricRecord {
	var id uuid.UUID
	id[15] = n
	return models.MetricRecord{
		AgentID:          id,
		TotalMemoryBytes: uint64(n) * 1024,
		UsedMemoryBytes:  uint64(n) * 512,
		AverageCPU:       float32(n) / 100,
	}
}

func TestFramerByteByByte(t *testing.T) {
	f := NewFramer()
	encoded := EncodeV1(testRecordN(1))

	for _, b := range encoded[:len(encoded)-1] {
		f.Feed([]byte{b})
		_, _, err := f.Next()
		require.ErrorIs(t, err, ErrIncomplete)
	}

	f.Feed(encoded[len(encoded)-1:])
	_, record, err := f.Next()
	require.NoError(t, err)
	assert.Equal(t, testRecordN(1), record)
	assert.Equal(t, 0, f.Buffered())
}

func TestFramerMultipleEnvelopesOneChunk(t *testing.T) {
	f := NewFramer()
	var stream []byte
	for n := byte(1); n <= 3; n++ {
		stream = append(stream, EncodeV1(testRecordN(n))...)
	}
	f.Feed(stream)

	for n := byte(1); n <= 3; n++ {
		_, record, err := f.Next()
		require.NoError(t, err)
		assert.Equal(t, testRecordN(n), record)
	}
	_, _, err := f.Next()
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestFramerKeepsRemainder(t *testing.T) {
	f := NewFramer()
	first := EncodeV1(testRecordN(1))
	second := EncodeV1(testRecordN(2))

	// First envelope plus half of the second in one read.
	f.Feed(append(append([]byte{}, first...), second[:20]...))

	_, record, err := f.Next()
	require.NoError(t, err)
	assert.Equal(t, testRecordN(1), record)
	assert.Equal(t, 20, f.Buffered())

	_, _, err = f.Next()
	require.ErrorIs(t, err, ErrIncomplete)

	f.Feed(second[20:])
	_, record, err = f.Next()
	require.NoError(t, err)
	assert.Equal(t, testRecordN(2), record)
}

func TestFramerFatalErrorConsumesNothing(t *testing.T) {
	f := NewFramer()
	corrupted := EncodeV1(testRecordN(1))
	corrupted[13] ^= 0xff
	f.Feed(corrupted)

	before := f.Buffered()
	_, _, err := f.Next()
	require.ErrorIs(t, err, ErrChecksumMismatch)
	assert.Equal(t, before, f.Buffered())
}
