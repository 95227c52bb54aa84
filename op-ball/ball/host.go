package ball

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/event"
	"github.com/holiman/uint256"

	"github.com/jinmel/interop/op-ball/transport"
)

// Host runs App operations one at a time. Every handler observes the state
// left by the previous one.
type Host struct {
	mu  sync.Mutex
	app *App
}

func NewHost(app *App) *Host {
	return &Host{app: app}
}

func (h *Host) Receive(ctx context.Context, pkt transport.Packet) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.app.Receive(ctx, pkt)
}

func (h *Host) Send(ctx context.Context, params SendParams) (transport.Receipt, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.app.Send(ctx, params)
}

func (h *Host) QuoteSend(ctx context.Context, params QuoteParams) (transport.MessagingFee, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.app.QuoteSend(ctx, params)
}

func (h *Host) Ball() *uint256.Int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.app.Ball()
}

func (h *Host) State() *State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.app.State()
}

func (h *Host) Peer(eid uint32) (PeerEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.app.Peer(eid)
}

func (h *Host) SetPeers(peers PeerSource) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.app.SetPeers(peers)
}

func (h *Host) SubscribeBallReceived(ch chan<- BallReceived) event.Subscription {
	return h.app.SubscribeBallReceived(ch)
}

func (h *Host) SubscribeBallSent(ch chan<- BallSent) event.Subscription {
	return h.app.SubscribeBallSent(ch)
}
