package transport

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrUnknownPath         = errors.New("no packets on path")
	ErrInvalidNonce        = errors.New("invalid nonce")
	ErrAlreadyCleared      = errors.New("packet already cleared")
	ErrPayloadHashMismatch = errors.New("payload hash mismatch")
	ErrInsufficientFee     = errors.New("insufficient fee")
)

// LoopbackConfig prices messages on a loopback network.
type LoopbackConfig struct {
	BaseFee    uint64
	ByteFee    uint64
	LzTokenFee uint64
}

func DefaultLoopbackConfig() LoopbackConfig {
	return LoopbackConfig{
		BaseFee:    1_000_000,
		ByteFee:    1_000,
		LzTokenFee: 100,
	}
}

type path struct {
	srcEID   uint32
	sender   common.Hash
	dstEID   uint32
	receiver common.Hash
}

type inbound struct {
	cleared uint64
	hashes  map[uint64]common.Hash
}

// Loopback is an in-memory network of endpoints. Messages dispatched from one
// endpoint are queued for the destination EID until drained with Next.
type Loopback struct {
	mu       sync.Mutex
	cfg      LoopbackConfig
	outbound map[path]uint64
	inbound  map[path]*inbound
	queues   map[uint32][]Packet
}

func NewLoopback(cfg LoopbackConfig) *Loopback {
	return &Loopback{
		cfg:      cfg,
		outbound: make(map[path]uint64),
		inbound:  make(map[path]*inbound),
		queues:   make(map[uint32][]Packet),
	}
}

// Endpoint returns the transport for applications living on chain eid.
func (l *Loopback) Endpoint(eid uint32) *LoopbackEndpoint {
	return &LoopbackEndpoint{net: l, eid: eid}
}

// Pending returns the number of packets queued for eid.
func (l *Loopback) Pending(eid uint32) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queues[eid])
}

// Next pops the oldest packet queued for eid.
func (l *Loopback) Next(eid uint32) (Packet, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	q := l.queues[eid]
	if len(q) == 0 {
		return Packet{}, false
	}
	pkt := q[0]
	l.queues[eid] = q[1:]
	return pkt, true
}

func (l *Loopback) quote(message, options []byte, payInLzToken bool) MessagingFee {
	size := uint64(len(message) + len(options))
	native := l.cfg.BaseFee
	if l.cfg.ByteFee > 0 && size > (math.MaxUint64-native)/l.cfg.ByteFee {
		native = math.MaxUint64
	} else {
		native += size * l.cfg.ByteFee
	}
	fee := MessagingFee{NativeFee: native}
	if payInLzToken {
		fee.LzTokenFee = l.cfg.LzTokenFee
	}
	return fee
}

// LoopbackEndpoint is one chain's view of a Loopback network.
type LoopbackEndpoint struct {
	net *Loopback
	eid uint32
}

var _ Transport = (*LoopbackEndpoint)(nil)

func (e *LoopbackEndpoint) EID() uint32 {
	return e.eid
}

func (e *LoopbackEndpoint) Acknowledge(_ context.Context, receiver common.Hash, pkt Packet) error {
	l := e.net
	l.mu.Lock()
	defer l.mu.Unlock()

	p := path{srcEID: pkt.SrcEID, sender: pkt.Sender, dstEID: e.eid, receiver: receiver}
	in, ok := l.inbound[p]
	if !ok {
		return ErrUnknownPath
	}
	if pkt.Nonce > in.cleared+1 {
		return fmt.Errorf("%w: got %d, next is %d", ErrInvalidNonce, pkt.Nonce, in.cleared+1)
	}
	want, ok := in.hashes[pkt.Nonce]
	if !ok {
		return fmt.Errorf("%w: nonce %d", ErrAlreadyCleared, pkt.Nonce)
	}
	if PayloadHash(pkt.GUID, pkt.Message) != want {
		return ErrPayloadHashMismatch
	}
	delete(in.hashes, pkt.Nonce)
	in.cleared = pkt.Nonce
	return nil
}

func (e *LoopbackEndpoint) Dispatch(_ context.Context, sender common.Hash, params SendParams) (Receipt, error) {
	l := e.net
	l.mu.Lock()
	defer l.mu.Unlock()

	fee := l.quote(params.Message, params.Options, params.PayInLzToken())
	if params.NativeFee < fee.NativeFee || params.LzTokenFee < fee.LzTokenFee {
		return Receipt{}, fmt.Errorf("%w: need %d native / %d lz token, got %d / %d",
			ErrInsufficientFee, fee.NativeFee, fee.LzTokenFee, params.NativeFee, params.LzTokenFee)
	}

	p := path{srcEID: e.eid, sender: sender, dstEID: params.DstEID, receiver: params.Receiver}
	l.outbound[p]++
	nonce := l.outbound[p]
	guid := ComputeGUID(nonce, e.eid, sender, params.DstEID, params.Receiver)

	in, ok := l.inbound[p]
	if !ok {
		in = &inbound{hashes: make(map[uint64]common.Hash)}
		l.inbound[p] = in
	}
	msg := append([]byte(nil), params.Message...)
	in.hashes[nonce] = PayloadHash(guid, msg)

	l.queues[params.DstEID] = append(l.queues[params.DstEID], Packet{
		Origin:   Origin{SrcEID: e.eid, Sender: sender, Nonce: nonce},
		Receiver: params.Receiver,
		GUID:     guid,
		Message:  msg,
	})
	return Receipt{GUID: guid, Nonce: nonce, Fee: fee}, nil
}

func (e *LoopbackEndpoint) Quote(_ context.Context, params QuoteParams) (MessagingFee, error) {
	e.net.mu.Lock()
	defer e.net.mu.Unlock()
	return e.net.quote(params.Message, params.Options, params.PayInLzToken), nil
}
