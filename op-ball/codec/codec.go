// Package codec converts ball values to and from the message payloads exchanged
// with the remote application.
//
// Two layouts exist, both standard Solidity ABI encodings:
//
//	vanilla: abi.encode(uint256 ball)                          32 bytes
//	ABA:     abi.encode(uint256 ball, uint16 type, bytes opts) 128+len(opts) bytes
//
// The payload length alone tells them apart: 32 bytes is vanilla, anything
// else must be a well-formed ABA payload.
package codec

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/holiman/uint256"
)

const (
	// Uint256Size is the size of one ABI word.
	Uint256Size = 32
	// ABAHeaderSize covers ball, type, options offset and options length.
	ABAHeaderSize = 4 * Uint256Size
	// ABAOptionsOffset is where the dynamic bytes section starts in an ABA payload.
	ABAOptionsOffset = 3 * Uint256Size
)

const (
	// TypeVanilla is reported by DecodeABA for 32-byte payloads.
	TypeVanilla uint16 = 0
	// TypeABA asks the receiver to bounce the ball back to the sender.
	TypeABA uint16 = 2
)

var ErrInvalidMessageLength = errors.New("invalid message length")

// Message is a decoded payload.
type Message struct {
	Ball          *uint256.Int
	Type          uint16
	ReturnOptions []byte
}

func (m *Message) IsABA() bool {
	return m.Type == TypeABA
}

// EncodeVanilla returns abi.encode(uint256(ball)).
func EncodeVanilla(ball *uint256.Int) []byte {
	word := ball.Bytes32()
	return word[:]
}

// DecodeVanilla is abi.decode(msg, (uint256)) for payloads of exactly one word.
func DecodeVanilla(msg []byte) (*uint256.Int, error) {
	if len(msg) != Uint256Size {
		return nil, ErrInvalidMessageLength
	}
	return new(uint256.Int).SetBytes32(msg), nil
}

// EncodeABA returns abi.encode(uint256(ball), uint16(TypeABA), bytes(returnOptions)).
// The options are appended unpadded.
func EncodeABA(ball *uint256.Int, returnOptions []byte) []byte {
	out := make([]byte, ABAHeaderSize+len(returnOptions))

	word := ball.Bytes32()
	copy(out[0:32], word[:])
	binary.BigEndian.PutUint16(out[62:64], TypeABA)
	binary.BigEndian.PutUint64(out[88:96], ABAOptionsOffset)
	binary.BigEndian.PutUint64(out[120:128], uint64(len(returnOptions)))
	copy(out[ABAHeaderSize:], returnOptions)

	return out
}

// DecodeABA decodes either layout. A 32-byte payload decodes as vanilla with
// Type set to TypeVanilla and no return options.
//
// Only the low 8 bytes of the offset and length words are read, matching the
// encoder on the other side; the bounds checks below are what keep a hostile
// offset or length from reading outside msg.
func DecodeABA(msg []byte) (*Message, error) {
	if len(msg) == Uint256Size {
		return &Message{
			Ball:          new(uint256.Int).SetBytes32(msg),
			Type:          TypeVanilla,
			ReturnOptions: []byte{},
		}, nil
	}
	if len(msg) < ABAHeaderSize {
		return nil, ErrInvalidMessageLength
	}

	ball := new(uint256.Int).SetBytes32(msg[0:32])
	msgType := binary.BigEndian.Uint16(msg[62:64])

	offset := binary.BigEndian.Uint64(msg[88:96])
	if offset < ABAOptionsOffset {
		return nil, ErrInvalidMessageLength
	}
	// offset+32 must not wrap before it is compared with the payload size.
	size := uint64(len(msg))
	if offset > math.MaxUint64-Uint256Size || size < offset+Uint256Size {
		return nil, ErrInvalidMessageLength
	}

	start := offset + Uint256Size
	optLen := binary.BigEndian.Uint64(msg[start-8 : start])
	if optLen > size-start {
		return nil, ErrInvalidMessageLength
	}

	opts := []byte{}
	if optLen > 0 {
		opts = make([]byte, optLen)
		copy(opts, msg[start:start+optLen])
	}

	return &Message{
		Ball:          ball,
		Type:          msgType,
		ReturnOptions: opts,
	}, nil
}

// SaturatingDecrement returns ball-1, or zero when ball is already zero.
// The input is not modified.
func SaturatingDecrement(ball *uint256.Int) *uint256.Int {
	if ball.IsZero() {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(ball, uint256.NewInt(1))
}
