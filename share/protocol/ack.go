package protocol

import "encoding/binary"

// Ack statuses the server may reply with after receiving an envelope.
const (
	AckAccepted uint32 = 0
)

const ackSizeV1 = 8

// EncodeAckV1 builds the fixed-size acknowledgement frame the server writes
// back after a submission was handed to the store:
// magic uint16 | version uint16 | status uint32, big-endian.
func EncodeAckV1(status uint32) []byte {
	buf := make([]byte, ackSizeV1)
	binary.BigEndian.PutUint16(buf[0:2], MagicNumber)
	binary.BigEndian.PutUint16(buf[2:4], Version1)
	binary.BigEndian.PutUint32(buf[4:8], status)
	return buf
}

// DecodeAckV1 decodes an acknowledgement frame. It shares the envelope error
// taxonomy: ErrIncomplete until all 8 bytes are present, then magic and
// version are checked the same way DecodeV1 checks them.
func DecodeAckV1(buf []byte) (status uint32, err error) {
	if len(buf) < ackSizeV1 {
		return 0, ErrIncomplete
	}
	if binary.BigEndian.Uint16(buf[0:2]) != MagicNumber {
		return 0, ErrProtocolMismatch
	}
	if binary.BigEndian.Uint16(buf[2:4]) != Version1 {
		return 0, ErrUnsupportedVersion
	}
	return binary.BigEndian.Uint32(buf[4:8]), nil
}
