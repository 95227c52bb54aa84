package ball

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/jinmel/interop/op-ball/codec"
	"github.com/jinmel/interop/op-ball/transport"
)

// Receive handles a packet delivered by the transport. The packet is
// acknowledged before its payload is decoded, so a malformed payload is
// still consumed. Under PatternABA the ball is set to the received value
// and then a decremented copy is sent back to the source; the counter is
// written through at each step and is not rolled back if a later step fails.
func (a *App) Receive(ctx context.Context, pkt transport.Packet) error {
	peer, err := a.peers.Peer(pkt.SrcEID)
	if err != nil {
		a.metrics.RecordRejected("unknown_peer")
		return err
	}
	if pkt.Sender != peer.Address {
		a.metrics.RecordRejected("unauthorized_sender")
		return fmt.Errorf("%w: eid %d sender %s, expected %s", ErrUnauthorizedSender, pkt.SrcEID, pkt.Sender, peer.Address)
	}

	if err := a.transport.Acknowledge(ctx, a.cfg.Address, pkt); err != nil {
		return err
	}

	if a.cfg.Pattern == PatternVanilla {
		return a.receiveVanilla(pkt)
	}
	return a.receiveABA(ctx, peer, pkt)
}

func (a *App) receiveVanilla(pkt transport.Packet) error {
	ball, err := codec.DecodeVanilla(pkt.Message)
	if err != nil {
		a.metrics.RecordRejected("invalid_message_length")
		return err
	}
	return a.applyReceived(ball, pkt)
}

func (a *App) receiveABA(ctx context.Context, peer PeerEntry, pkt transport.Packet) error {
	msg, err := codec.DecodeABA(pkt.Message)
	if err != nil {
		a.metrics.RecordRejected("invalid_message_length")
		return err
	}
	if !msg.IsABA() {
		a.metrics.RecordRejected("invalid_message_type")
		return fmt.Errorf("%w: %d", ErrInvalidMessageType, msg.Type)
	}
	if err := a.applyReceived(msg.Ball, pkt); err != nil {
		return err
	}

	ret := codec.SaturatingDecrement(msg.Ball)
	opts, err := peer.EnforcedOptions.Combine(nil, msg.ReturnOptions)
	if err != nil {
		return fmt.Errorf("failed to combine return options: %w", err)
	}
	payload := codec.EncodeVanilla(ret)
	if err := a.setBall(ret); err != nil {
		return err
	}

	receipt, err := a.transport.Dispatch(ctx, a.cfg.Address, transport.SendParams{
		DstEID:    pkt.SrcEID,
		Receiver:  peer.Address,
		Message:   payload,
		Options:   opts,
		NativeFee: a.cfg.ReturnFee,
	})
	if err != nil {
		a.metrics.RecordDispatchFailed(pkt.SrcEID)
		a.log.Error("Failed to bounce ball", "dst_eid", pkt.SrcEID, "ball", ballString(ret), "err", err)
		return err
	}
	a.metrics.RecordBounce(pkt.SrcEID)
	a.log.Info("Bounced ball", "dst_eid", pkt.SrcEID, "ball", ballString(ret), "guid", receipt.GUID, "nonce", receipt.Nonce)
	return nil
}

func (a *App) applyReceived(ball *uint256.Int, pkt transport.Packet) error {
	old := a.state.Ball
	if err := a.setBall(ball); err != nil {
		return err
	}
	a.metrics.RecordBallReceived(pkt.SrcEID, ball)
	a.receivedFeed.Send(newBallReceived(old, ball, pkt.SrcEID))
	a.log.Info("Received ball", "src_eid", pkt.SrcEID, "nonce", pkt.Nonce, "guid", pkt.GUID, "old", ballString(old), "new", ballString(ball))
	return nil
}
