package ball

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/jinmel/interop/op-ball/transport"
)

type QuoteParams struct {
	DstEID uint32
	// Receiver defaults to the configured peer address when zero.
	Receiver      common.Hash
	ReturnOptions []byte
	Options       []byte
	PayInLzToken  bool
}

// QuoteSend prices the message Send would dispatch with the same arguments.
// It does not change state.
func (a *App) QuoteSend(ctx context.Context, params QuoteParams) (transport.MessagingFee, error) {
	peer, err := a.peers.Peer(params.DstEID)
	if err != nil {
		return transport.MessagingFee{}, err
	}
	out, err := a.outboundMessage(peer, params.ReturnOptions, params.Options)
	if err != nil {
		return transport.MessagingFee{}, err
	}
	receiver := params.Receiver
	if receiver == (common.Hash{}) {
		receiver = peer.Address
	}
	return a.transport.Quote(ctx, transport.QuoteParams{
		Sender:       a.cfg.Address,
		DstEID:       params.DstEID,
		Receiver:     receiver,
		Message:      out.message,
		Options:      out.options,
		PayInLzToken: params.PayInLzToken,
	})
}
