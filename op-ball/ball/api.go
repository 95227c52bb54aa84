package ball

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/event"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"

	"github.com/jinmel/interop/op-ball/transport"
)

type BallAPIBackend interface {
	Receive(ctx context.Context, pkt transport.Packet) error
	Send(ctx context.Context, params SendParams) (transport.Receipt, error)
	QuoteSend(ctx context.Context, params QuoteParams) (transport.MessagingFee, error)
	Ball() *uint256.Int
	Peer(eid uint32) (PeerEntry, error)
	SubscribeBallReceived(ch chan<- BallReceived) event.Subscription
	SubscribeBallSent(ch chan<- BallSent) event.Subscription
}

type ReceiveArgs struct {
	SrcEid   uint32         `json:"srcEid"`
	Sender   common.Hash    `json:"sender"`
	Nonce    hexutil.Uint64 `json:"nonce"`
	Receiver common.Hash    `json:"receiver"`
	GUID     common.Hash    `json:"guid"`
	Message  hexutil.Bytes  `json:"message"`
}

type SendArgs struct {
	DstEid        uint32         `json:"dstEid"`
	ReturnOptions hexutil.Bytes  `json:"returnOptions"`
	Options       hexutil.Bytes  `json:"options"`
	NativeFee     hexutil.Uint64 `json:"nativeFee"`
	LzTokenFee    hexutil.Uint64 `json:"lzTokenFee"`
}

type QuoteArgs struct {
	DstEid        uint32        `json:"dstEid"`
	Receiver      common.Hash   `json:"receiver"`
	ReturnOptions hexutil.Bytes `json:"returnOptions"`
	Options       hexutil.Bytes `json:"options"`
	PayInLzToken  bool          `json:"payInLzToken"`
}

type BallResponse struct {
	Ball  hexutil.Bytes `json:"ball"`
	Value string        `json:"value"`
}

type ballAPI struct {
	b BallAPIBackend
}

func NewBallAPI(b BallAPIBackend) *ballAPI {
	return &ballAPI{b: b}
}

func GetBallAPI(api *ballAPI) gethrpc.API {
	return gethrpc.API{
		Namespace: "ball",
		Service:   api,
	}
}

// LzReceive delivers an inbound packet.
func (api *ballAPI) LzReceive(ctx context.Context, args ReceiveArgs) error {
	return api.b.Receive(ctx, transport.Packet{
		Origin: transport.Origin{
			SrcEID: args.SrcEid,
			Sender: args.Sender,
			Nonce:  uint64(args.Nonce),
		},
		Receiver: args.Receiver,
		GUID:     args.GUID,
		Message:  args.Message,
	})
}

func (api *ballAPI) Send(ctx context.Context, args SendArgs) (*transport.Receipt, error) {
	receipt, err := api.b.Send(ctx, SendParams{
		DstEID:        args.DstEid,
		ReturnOptions: args.ReturnOptions,
		Options:       args.Options,
		NativeFee:     uint64(args.NativeFee),
		LzTokenFee:    uint64(args.LzTokenFee),
	})
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (api *ballAPI) QuoteSend(ctx context.Context, args QuoteArgs) (*transport.MessagingFee, error) {
	fee, err := api.b.QuoteSend(ctx, QuoteParams{
		DstEID:        args.DstEid,
		Receiver:      args.Receiver,
		ReturnOptions: args.ReturnOptions,
		Options:       args.Options,
		PayInLzToken:  args.PayInLzToken,
	})
	if err != nil {
		return nil, err
	}
	return &fee, nil
}

func (api *ballAPI) GetBall(_ context.Context) (*BallResponse, error) {
	v := api.b.Ball()
	return &BallResponse{Ball: ballBytes(v), Value: ballString(v)}, nil
}

func (api *ballAPI) GetPeer(_ context.Context, eid uint32) (*PeerEntry, error) {
	p, err := api.b.Peer(eid)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// BallReceived streams BallReceived events to a websocket subscriber.
func (api *ballAPI) BallReceived(ctx context.Context) (*gethrpc.Subscription, error) {
	notifier, supported := gethrpc.NotifierFromContext(ctx)
	if !supported {
		return &gethrpc.Subscription{}, gethrpc.ErrNotificationsUnsupported
	}
	sub := notifier.CreateSubscription()
	events := make(chan BallReceived, 16)
	feedSub := api.b.SubscribeBallReceived(events)
	go forward[BallReceived](notifier, sub, feedSub, events)
	return sub, nil
}

// BallSent streams BallSent events to a websocket subscriber.
func (api *ballAPI) BallSent(ctx context.Context) (*gethrpc.Subscription, error) {
	notifier, supported := gethrpc.NotifierFromContext(ctx)
	if !supported {
		return &gethrpc.Subscription{}, gethrpc.ErrNotificationsUnsupported
	}
	sub := notifier.CreateSubscription()
	events := make(chan BallSent, 16)
	feedSub := api.b.SubscribeBallSent(events)
	go forward[BallSent](notifier, sub, feedSub, events)
	return sub, nil
}

func forward[T any](notifier *gethrpc.Notifier, sub *gethrpc.Subscription, feedSub event.Subscription, events <-chan T) {
	defer feedSub.Unsubscribe()
	for {
		select {
		case ev := <-events:
			if err := notifier.Notify(sub.ID, ev); err != nil {
				return
			}
		case <-sub.Err():
			return
		case <-feedSub.Err():
			return
		}
	}
}
