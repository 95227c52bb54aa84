// Package transport describes the message transport the ball application
// sends and receives through, and provides two implementations of it: an
// in-memory loopback network and an adapter for an EVM endpoint contract.
package transport

import (
	"context"
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Origin identifies where an inbound packet came from.
type Origin struct {
	SrcEID uint32      `json:"srcEid"`
	Sender common.Hash `json:"sender"`
	Nonce  uint64      `json:"nonce"`
}

// Packet is an inbound delivery.
type Packet struct {
	Origin
	Receiver common.Hash `json:"receiver"`
	GUID     common.Hash `json:"guid"`
	Message  []byte      `json:"message"`
}

// SendParams describes an outbound message.
type SendParams struct {
	DstEID     uint32
	Receiver   common.Hash
	Message    []byte
	Options    []byte
	NativeFee  uint64
	LzTokenFee uint64
}

// PayInLzToken reports whether the sender is paying the messaging fee in lz token.
func (p SendParams) PayInLzToken() bool {
	return p.LzTokenFee > 0
}

type QuoteParams struct {
	Sender       common.Hash
	DstEID       uint32
	Receiver     common.Hash
	Message      []byte
	Options      []byte
	PayInLzToken bool
}

type MessagingFee struct {
	NativeFee  uint64 `json:"nativeFee"`
	LzTokenFee uint64 `json:"lzTokenFee"`
}

// Receipt describes an accepted outbound message. Fields the transport does
// not know at submission time are left zero.
type Receipt struct {
	GUID   common.Hash  `json:"guid"`
	Nonce  uint64       `json:"nonce"`
	TxHash common.Hash  `json:"txHash"`
	Fee    MessagingFee `json:"fee"`
}

// Transport is the message-delivery service. Implementations own delivery,
// nonce ordering, replay suppression and fee settlement.
type Transport interface {
	// Acknowledge marks an inbound packet addressed to receiver as consumed.
	// It must succeed before the packet payload is acted upon.
	Acknowledge(ctx context.Context, receiver common.Hash, pkt Packet) error
	// Dispatch sends a message on behalf of sender. It does not wait for delivery.
	Dispatch(ctx context.Context, sender common.Hash, params SendParams) (Receipt, error)
	// Quote estimates the fee of a message without sending it.
	Quote(ctx context.Context, params QuoteParams) (MessagingFee, error)
}

// ComputeGUID derives the packet id the same way the endpoint contracts do:
// keccak256(nonce ‖ srcEid ‖ sender ‖ dstEid ‖ receiver), integers big-endian.
func ComputeGUID(nonce uint64, srcEID uint32, sender common.Hash, dstEID uint32, receiver common.Hash) common.Hash {
	buf := make([]byte, 0, 8+4+32+4+32)
	buf = binary.BigEndian.AppendUint64(buf, nonce)
	buf = binary.BigEndian.AppendUint32(buf, srcEID)
	buf = append(buf, sender[:]...)
	buf = binary.BigEndian.AppendUint32(buf, dstEID)
	buf = append(buf, receiver[:]...)
	return crypto.Keccak256Hash(buf)
}

// PayloadHash is the hash an endpoint stores for a verified packet.
func PayloadHash(guid common.Hash, message []byte) common.Hash {
	return crypto.Keccak256Hash(guid[:], message)
}
