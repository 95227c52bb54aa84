package transport

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/jinmel/interop/op-service/sources"
)

var ErrFeeOverflow = errors.New("fee does not fit in 64 bits")

// EndpointClient is the part of sources.EndpointClient the adapter uses.
type EndpointClient interface {
	From() common.Address
	Quote(ctx context.Context, sender common.Address, params sources.MessagingParams) (sources.MessagingFee, error)
	Send(ctx context.Context, params sources.MessagingParams, refund common.Address, nativeFee *big.Int) (*types.Transaction, error)
	Clear(ctx context.Context, oapp common.Address, origin sources.Origin, guid [32]byte, message []byte) (*types.Receipt, error)
}

// EVM adapts an EndpointV2 contract client to the Transport interface.
// Identities are 32-byte; EVM addresses are their low 20 bytes.
type EVM struct {
	log    log.Logger
	client EndpointClient
	refund common.Address
}

var _ Transport = (*EVM)(nil)

func NewEVM(log log.Logger, client EndpointClient, refund common.Address) *EVM {
	return &EVM{log: log, client: client, refund: refund}
}

func (e *EVM) Acknowledge(ctx context.Context, receiver common.Hash, pkt Packet) error {
	origin := sources.Origin{SrcEid: pkt.SrcEID, Sender: pkt.Sender, Nonce: pkt.Nonce}
	_, err := e.client.Clear(ctx, common.BytesToAddress(receiver[:]), origin, pkt.GUID, pkt.Message)
	return err
}

func (e *EVM) Dispatch(ctx context.Context, sender common.Hash, params SendParams) (Receipt, error) {
	if from := e.client.From(); common.BytesToAddress(sender[:]) != from {
		e.log.Warn("Sender is not the signing account, endpoint may reject the send", "sender", sender, "from", from)
	}
	tx, err := e.client.Send(ctx, sources.MessagingParams{
		DstEid:       params.DstEID,
		Receiver:     params.Receiver,
		Message:      params.Message,
		Options:      params.Options,
		PayInLzToken: params.PayInLzToken(),
	}, e.refund, new(big.Int).SetUint64(params.NativeFee))
	if err != nil {
		return Receipt{}, err
	}
	return Receipt{
		TxHash: tx.Hash(),
		Fee:    MessagingFee{NativeFee: params.NativeFee, LzTokenFee: params.LzTokenFee},
	}, nil
}

func (e *EVM) Quote(ctx context.Context, params QuoteParams) (MessagingFee, error) {
	fee, err := e.client.Quote(ctx, common.BytesToAddress(params.Sender[:]), sources.MessagingParams{
		DstEid:       params.DstEID,
		Receiver:     params.Receiver,
		Message:      params.Message,
		Options:      params.Options,
		PayInLzToken: params.PayInLzToken,
	})
	if err != nil {
		return MessagingFee{}, err
	}
	native, err := toUint64(fee.NativeFee)
	if err != nil {
		return MessagingFee{}, err
	}
	lzToken, err := toUint64(fee.LzTokenFee)
	if err != nil {
		return MessagingFee{}, err
	}
	return MessagingFee{NativeFee: native, LzTokenFee: lzToken}, nil
}

func toUint64(v *big.Int) (uint64, error) {
	if v == nil {
		return 0, nil
	}
	if !v.IsUint64() {
		return 0, ErrFeeOverflow
	}
	return v.Uint64(), nil
}
