package ball

import (
	"context"

	"github.com/jinmel/interop/op-ball/transport"
)

// SendParams is a user request to pass the ball to a remote peer.
type SendParams struct {
	DstEID uint32
	// ReturnOptions are carried in the message for the peer's return trip.
	ReturnOptions []byte
	// Options are merged into the peer's enforced send options.
	Options    []byte
	NativeFee  uint64
	LzTokenFee uint64
}

// Send decrements the ball and dispatches it to the peer on DstEID as a
// kind-2 message. The decremented ball is kept even if dispatch fails.
func (a *App) Send(ctx context.Context, params SendParams) (transport.Receipt, error) {
	peer, err := a.peers.Peer(params.DstEID)
	if err != nil {
		return transport.Receipt{}, err
	}
	out, err := a.outboundMessage(peer, params.ReturnOptions, params.Options)
	if err != nil {
		return transport.Receipt{}, err
	}

	current := a.state.Ball
	if err := a.setBall(out.ball); err != nil {
		return transport.Receipt{}, err
	}
	a.metrics.RecordBallSent(params.DstEID, out.ball)
	a.sentFeed.Send(newBallSent(current, out.ball, params.DstEID))

	receipt, err := a.transport.Dispatch(ctx, a.cfg.Address, transport.SendParams{
		DstEID:     params.DstEID,
		Receiver:   peer.Address,
		Message:    out.message,
		Options:    out.options,
		NativeFee:  params.NativeFee,
		LzTokenFee: params.LzTokenFee,
	})
	if err != nil {
		a.metrics.RecordDispatchFailed(params.DstEID)
		a.log.Error("Failed to send ball", "dst_eid", params.DstEID, "ball", ballString(out.ball), "err", err)
		return transport.Receipt{}, err
	}
	a.log.Info("Sent ball", "dst_eid", params.DstEID, "old", ballString(current), "new", ballString(out.ball), "guid", receipt.GUID, "nonce", receipt.Nonce)
	return receipt, nil
}
