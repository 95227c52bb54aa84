package transport

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	solEID   = uint32(30168)
	ethEID   = uint32(30101)
	solOApp  = common.HexToHash("0x5011")
	ethOApp  = common.HexToHash("0xe7e7")
	bigFee   = uint64(1 << 40)
	someOpts = []byte{0x00, 0x03}
)

func TestLoopbackDispatchAndAcknowledge(t *testing.T) {
	ctx := context.Background()
	net := NewLoopback(DefaultLoopbackConfig())
	sol, eth := net.Endpoint(solEID), net.Endpoint(ethEID)

	r1, err := sol.Dispatch(ctx, solOApp, SendParams{DstEID: ethEID, Receiver: ethOApp, Message: []byte("one"), Options: someOpts, NativeFee: bigFee})
	require.NoError(t, err)
	require.Equal(t, uint64(1), r1.Nonce)
	require.Equal(t, ComputeGUID(1, solEID, solOApp, ethEID, ethOApp), r1.GUID)

	r2, err := sol.Dispatch(ctx, solOApp, SendParams{DstEID: ethEID, Receiver: ethOApp, Message: []byte("two"), NativeFee: bigFee})
	require.NoError(t, err)
	require.Equal(t, uint64(2), r2.Nonce)
	require.NotEqual(t, r1.GUID, r2.GUID)

	require.Equal(t, 2, net.Pending(ethEID))
	require.Zero(t, net.Pending(solEID))

	p1, ok := net.Next(ethEID)
	require.True(t, ok)
	p2, ok := net.Next(ethEID)
	require.True(t, ok)
	_, ok = net.Next(ethEID)
	require.False(t, ok)

	require.Equal(t, Origin{SrcEID: solEID, Sender: solOApp, Nonce: 1}, p1.Origin)
	require.Equal(t, []byte("one"), p1.Message)
	require.Equal(t, ethOApp, p1.Receiver)

	// Out of order.
	require.ErrorIs(t, eth.Acknowledge(ctx, ethOApp, p2), ErrInvalidNonce)

	// Tampered payload.
	bad := p1
	bad.Message = []byte("uno")
	require.ErrorIs(t, eth.Acknowledge(ctx, ethOApp, bad), ErrPayloadHashMismatch)

	require.NoError(t, eth.Acknowledge(ctx, ethOApp, p1))
	// Replay.
	require.ErrorIs(t, eth.Acknowledge(ctx, ethOApp, p1), ErrAlreadyCleared)
	require.NoError(t, eth.Acknowledge(ctx, ethOApp, p2))
}

func TestLoopbackUnknownPath(t *testing.T) {
	net := NewLoopback(DefaultLoopbackConfig())
	err := net.Endpoint(ethEID).Acknowledge(context.Background(), ethOApp, Packet{
		Origin:  Origin{SrcEID: solEID, Sender: solOApp, Nonce: 1},
		Message: []byte("x"),
	})
	require.ErrorIs(t, err, ErrUnknownPath)
}

func TestLoopbackWrongReceiver(t *testing.T) {
	ctx := context.Background()
	net := NewLoopback(DefaultLoopbackConfig())
	_, err := net.Endpoint(solEID).Dispatch(ctx, solOApp, SendParams{DstEID: ethEID, Receiver: ethOApp, Message: []byte("x"), NativeFee: bigFee})
	require.NoError(t, err)
	pkt, _ := net.Next(ethEID)
	require.ErrorIs(t, net.Endpoint(ethEID).Acknowledge(ctx, common.HexToHash("0xbad"), pkt), ErrUnknownPath)
}

func TestLoopbackFees(t *testing.T) {
	ctx := context.Background()
	cfg := LoopbackConfig{BaseFee: 100, ByteFee: 2, LzTokenFee: 7}
	net := NewLoopback(cfg)
	sol := net.Endpoint(solEID)

	fee, err := sol.Quote(ctx, QuoteParams{Sender: solOApp, DstEID: ethEID, Receiver: ethOApp, Message: make([]byte, 32), Options: someOpts})
	require.NoError(t, err)
	require.Equal(t, MessagingFee{NativeFee: 100 + 2*34}, fee)

	fee, err = sol.Quote(ctx, QuoteParams{Message: make([]byte, 32), PayInLzToken: true})
	require.NoError(t, err)
	require.Equal(t, MessagingFee{NativeFee: 164, LzTokenFee: 7}, fee)

	_, err = sol.Dispatch(ctx, solOApp, SendParams{DstEID: ethEID, Receiver: ethOApp, Message: make([]byte, 32), NativeFee: 163})
	require.ErrorIs(t, err, ErrInsufficientFee)
	require.Zero(t, net.Pending(ethEID))

	r, err := sol.Dispatch(ctx, solOApp, SendParams{DstEID: ethEID, Receiver: ethOApp, Message: make([]byte, 32), NativeFee: 164})
	require.NoError(t, err)
	require.Equal(t, uint64(164), r.Fee.NativeFee)
}

func TestLoopbackQuoteSaturates(t *testing.T) {
	net := NewLoopback(LoopbackConfig{BaseFee: 10, ByteFee: 1 << 62})
	fee, err := net.Endpoint(solEID).Quote(context.Background(), QuoteParams{Message: make([]byte, 8)})
	require.NoError(t, err)
	require.Equal(t, ^uint64(0), fee.NativeFee)
}
