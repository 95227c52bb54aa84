package ball

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/jinmel/interop/op-ball/codec"
)

func TestReceiveBounce(t *testing.T) {
	a := newTestApp(t, PatternABA)
	events := make(chan BallReceived, 1)
	sub := a.SubscribeBallReceived(events)
	defer sub.Unsubscribe()

	returnOpts := NewOptions().AddExecutorLzReceiveOption(200_000, 0).Bytes()
	err := a.Receive(context.Background(), inboundPacket(codec.EncodeABA(uint256.NewInt(5), returnOpts)))
	require.NoError(t, err)

	require.Equal(t, uint256.NewInt(4), a.Ball())
	require.Equal(t, uint256.NewInt(4), a.persistedBall(t))

	require.Len(t, a.tr.acked, 1)
	require.Len(t, a.tr.dispatched, 1)
	sent := a.tr.dispatched[0]
	require.Equal(t, remoteEID, sent.DstEID)
	require.Equal(t, remoteOApp, sent.Receiver)
	require.Equal(t, codec.EncodeVanilla(uint256.NewInt(4)), sent.Message)
	require.Equal(t, returnOpts, sent.Options)
	require.Equal(t, EstimatedReturnFee(), sent.NativeFee)
	require.Zero(t, sent.LzTokenFee)

	ev := <-events
	require.Equal(t, remoteEID, ev.SrcEID)
	require.Equal(t, "100000000000000000000", ev.OldBallStr)
	require.Equal(t, "5", ev.NewBallStr)
	require.Equal(t, codec.EncodeVanilla(uint256.NewInt(5)), []byte(ev.NewBall))
}

func TestReceiveRejectsVanillaUnderABA(t *testing.T) {
	a := newTestApp(t, PatternABA)
	a.setBallForTest(t, 10)

	err := a.Receive(context.Background(), inboundPacket(codec.EncodeVanilla(uint256.NewInt(10))))
	require.ErrorIs(t, err, ErrInvalidMessageType)

	require.Equal(t, uint256.NewInt(10), a.Ball())
	require.Equal(t, uint256.NewInt(10), a.persistedBall(t))
	// The packet is consumed even though its payload is rejected.
	require.Len(t, a.tr.acked, 1)
	require.Empty(t, a.tr.dispatched)
}

func TestReceiveRejectsUnknownType(t *testing.T) {
	a := newTestApp(t, PatternABA)
	msg := codec.EncodeABA(uint256.NewInt(7), nil)
	msg[63] = 1

	err := a.Receive(context.Background(), inboundPacket(msg))
	require.ErrorIs(t, err, ErrInvalidMessageType)
	require.Equal(t, InitialBall(), a.Ball())
}

func TestReceiveMalformed(t *testing.T) {
	tests := []struct {
		name string
		msg  []byte
	}{
		{"empty", nil},
		{"short", make([]byte, 100)},
		{"overclaimed options", func() []byte {
			msg := codec.EncodeABA(uint256.NewInt(7), []byte{0, 3})
			msg[127] = 0xff
			return msg
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp(t, PatternABA)
			err := a.Receive(context.Background(), inboundPacket(tt.msg))
			require.ErrorIs(t, err, ErrInvalidMessageLength)
			require.Equal(t, InitialBall(), a.Ball())
			require.Len(t, a.tr.acked, 1)
			require.Empty(t, a.tr.dispatched)
		})
	}
}

func TestReceiveAcknowledgeFailure(t *testing.T) {
	a := newTestApp(t, PatternABA)
	a.tr.ackErr = errAck

	err := a.Receive(context.Background(), inboundPacket(codec.EncodeABA(uint256.NewInt(5), nil)))
	require.Equal(t, errAck, err)
	require.Equal(t, InitialBall(), a.Ball())
	require.Equal(t, InitialBall(), a.persistedBall(t))
	require.Empty(t, a.tr.dispatched)
}

func TestReceiveDispatchFailureKeepsBall(t *testing.T) {
	a := newTestApp(t, PatternABA)
	a.tr.dispatchErr = errDispatch

	err := a.Receive(context.Background(), inboundPacket(codec.EncodeABA(uint256.NewInt(5), nil)))
	require.Equal(t, errDispatch, err)
	require.Equal(t, uint256.NewInt(4), a.Ball())
	require.Equal(t, uint256.NewInt(4), a.persistedBall(t))
}

func TestReceiveBadReturnOptionsKeepsReceivedBall(t *testing.T) {
	a := newTestApp(t, PatternABA, PeerEntry{
		RemoteEID: remoteEID,
		Address:   remoteOApp,
		EnforcedOptions: EnforcedOptions{
			Send: NewOptions().AddExecutorLzReceiveOption(100_000, 0).Bytes(),
		},
	})

	err := a.Receive(context.Background(), inboundPacket(codec.EncodeABA(uint256.NewInt(5), []byte{0, 1, 0xaa})))
	require.ErrorIs(t, err, ErrInvalidOptionType)
	require.Equal(t, uint256.NewInt(5), a.Ball())
	require.Empty(t, a.tr.dispatched)
}

func TestReceiveZeroBall(t *testing.T) {
	a := newTestApp(t, PatternABA)

	err := a.Receive(context.Background(), inboundPacket(codec.EncodeABA(new(uint256.Int), nil)))
	require.NoError(t, err)
	require.True(t, a.Ball().IsZero())
	require.Equal(t, codec.EncodeVanilla(new(uint256.Int)), a.tr.dispatched[0].Message)
}

func TestReceiveMergesEnforcedOptions(t *testing.T) {
	enforced := NewOptions().AddExecutorLzReceiveOption(100_000, 0).Bytes()
	a := newTestApp(t, PatternABA, PeerEntry{
		RemoteEID:       remoteEID,
		Address:         remoteOApp,
		EnforcedOptions: EnforcedOptions{Send: enforced},
	})

	returnOpts := NewOptions().
		AddExecutorLzReceiveOption(500_000, 0).
		AddExecutorOrderedExecutionOption().
		Bytes()
	err := a.Receive(context.Background(), inboundPacket(codec.EncodeABA(uint256.NewInt(5), returnOpts)))
	require.NoError(t, err)

	want := NewOptions().
		AddExecutorLzReceiveOption(100_000, 0).
		AddExecutorOrderedExecutionOption().
		Bytes()
	require.Equal(t, want, a.tr.dispatched[0].Options)
}

func TestReceiveUnknownPeer(t *testing.T) {
	a := newTestApp(t, PatternABA)
	pkt := inboundPacket(codec.EncodeABA(uint256.NewInt(5), nil))
	pkt.SrcEID = 40000

	err := a.Receive(context.Background(), pkt)
	require.ErrorIs(t, err, ErrPeerNotFound)
	require.Empty(t, a.tr.acked)
	require.Equal(t, InitialBall(), a.Ball())
}

func TestReceiveUnauthorizedSender(t *testing.T) {
	a := newTestApp(t, PatternABA)
	pkt := inboundPacket(codec.EncodeABA(uint256.NewInt(5), nil))
	pkt.Sender = localOApp

	err := a.Receive(context.Background(), pkt)
	require.ErrorIs(t, err, ErrUnauthorizedSender)
	require.Empty(t, a.tr.acked)
	require.Equal(t, InitialBall(), a.Ball())
}

func TestReceiveVanillaPattern(t *testing.T) {
	a := newTestApp(t, PatternVanilla)
	events := make(chan BallReceived, 1)
	sub := a.SubscribeBallReceived(events)
	defer sub.Unsubscribe()

	err := a.Receive(context.Background(), inboundPacket(codec.EncodeVanilla(uint256.NewInt(42))))
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(42), a.Ball())
	require.Empty(t, a.tr.dispatched)
	require.Equal(t, "42", (<-events).NewBallStr)

	err = a.Receive(context.Background(), inboundPacket(codec.EncodeABA(uint256.NewInt(5), nil)))
	require.ErrorIs(t, err, ErrInvalidMessageLength)
	require.Equal(t, uint256.NewInt(42), a.Ball())
}
