package ball

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/jinmel/interop/op-ball/codec"
)

func TestSend(t *testing.T) {
	a := newTestApp(t, PatternABA)
	a.setBallForTest(t, 100)
	events := make(chan BallSent, 1)
	sub := a.SubscribeBallSent(events)
	defer sub.Unsubscribe()

	returnOpts := NewOptions().AddExecutorLzReceiveOption(150_000, 0).Bytes()
	opts := NewOptions().AddExecutorLzReceiveOption(200_000, 0).Bytes()
	receipt, err := a.Send(context.Background(), SendParams{
		DstEID:        remoteEID,
		ReturnOptions: returnOpts,
		Options:       opts,
		NativeFee:     1_000,
	})
	require.NoError(t, err)
	require.Equal(t, uint64(1), receipt.Nonce)

	require.Equal(t, uint256.NewInt(99), a.Ball())
	require.Equal(t, uint256.NewInt(99), a.persistedBall(t))

	require.Len(t, a.tr.dispatched, 1)
	sent := a.tr.dispatched[0]
	require.Equal(t, remoteEID, sent.DstEID)
	require.Equal(t, remoteOApp, sent.Receiver)
	require.Equal(t, opts, sent.Options)
	require.Equal(t, uint64(1_000), sent.NativeFee)

	msg, err := codec.DecodeABA(sent.Message)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(99), msg.Ball)
	require.Equal(t, codec.TypeABA, msg.Type)
	require.Equal(t, returnOpts, msg.ReturnOptions)

	ev := <-events
	require.Equal(t, remoteEID, ev.DstEID)
	require.Equal(t, "100", ev.CurrentBallStr)
	require.Equal(t, "99", ev.NewBallStr)
}

func TestSendAtZero(t *testing.T) {
	a := newTestApp(t, PatternABA)
	a.setBallForTest(t, 0)

	_, err := a.Send(context.Background(), SendParams{DstEID: remoteEID})
	require.NoError(t, err)
	require.True(t, a.Ball().IsZero())
	msg, err := codec.DecodeABA(a.tr.dispatched[0].Message)
	require.NoError(t, err)
	require.True(t, msg.Ball.IsZero())
}

func TestSendUnknownPeer(t *testing.T) {
	a := newTestApp(t, PatternABA)
	_, err := a.Send(context.Background(), SendParams{DstEID: 40000})
	require.ErrorIs(t, err, ErrPeerNotFound)
	require.Equal(t, InitialBall(), a.Ball())
}

func TestSendBadOptionsLeavesBall(t *testing.T) {
	a := newTestApp(t, PatternABA, PeerEntry{
		RemoteEID: remoteEID,
		Address:   remoteOApp,
		EnforcedOptions: EnforcedOptions{
			Send: NewOptions().AddExecutorLzReceiveOption(100_000, 0).Bytes(),
		},
	})

	_, err := a.Send(context.Background(), SendParams{DstEID: remoteEID, Options: []byte{0, 2, 1}})
	require.ErrorIs(t, err, ErrInvalidOptionType)
	require.Equal(t, InitialBall(), a.Ball())
	require.Empty(t, a.tr.dispatched)
}

func TestSendDispatchFailureKeepsDecrement(t *testing.T) {
	a := newTestApp(t, PatternABA)
	a.setBallForTest(t, 100)
	a.tr.dispatchErr = errDispatch

	_, err := a.Send(context.Background(), SendParams{DstEID: remoteEID})
	require.Equal(t, errDispatch, err)
	require.Equal(t, uint256.NewInt(99), a.Ball())
	require.Equal(t, uint256.NewInt(99), a.persistedBall(t))
}
