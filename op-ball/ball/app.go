// Package ball implements the ball application: a 256-bit counter that is
// decremented and passed between chains, and bounced back automatically
// when it arrives.
package ball

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"

	"github.com/jinmel/interop/op-ball/codec"
	"github.com/jinmel/interop/op-ball/metrics"
	"github.com/jinmel/interop/op-ball/transport"
)

// Pattern selects which inbound message kind a deployment accepts.
type Pattern string

const (
	// PatternABA accepts kind-2 messages and bounces each one back to its source.
	PatternABA Pattern = "aba"
	// PatternVanilla accepts bare counters and does not reply.
	PatternVanilla Pattern = "vanilla"
)

func ParsePattern(s string) (Pattern, error) {
	switch p := Pattern(s); p {
	case PatternABA, PatternVanilla:
		return p, nil
	default:
		return "", fmt.Errorf("unknown pattern %q", s)
	}
}

// Counterpart is the pattern of the application on the other side of a round
// trip: kind-2 messages from a vanilla node are bounced by an ABA node.
func (p Pattern) Counterpart() Pattern {
	if p == PatternVanilla {
		return PatternABA
	}
	return PatternVanilla
}

type Config struct {
	// Address identifies this application to the transport.
	Address common.Hash
	Pattern Pattern
	// ReturnFee is the native fee attached to automatic return messages.
	ReturnFee uint64
}

// App is the ball state machine. It is not safe for concurrent use; Host
// serializes access to it.
type App struct {
	log       log.Logger
	cfg       Config
	store     *Store
	state     *State
	peers     PeerSource
	transport transport.Transport
	metrics   metrics.Metricer

	receivedFeed event.Feed
	sentFeed     event.Feed
}

func NewApp(log log.Logger, cfg Config, store *Store, state *State, peers PeerSource, tr transport.Transport, m metrics.Metricer) *App {
	if cfg.Pattern == "" {
		cfg.Pattern = PatternABA
	}
	return &App{
		log:       log,
		cfg:       cfg,
		store:     store,
		state:     state.Copy(),
		peers:     peers,
		transport: tr,
		metrics:   m,
	}
}

func (a *App) Address() common.Hash {
	return a.cfg.Address
}

// Ball returns a copy of the current ball.
func (a *App) Ball() *uint256.Int {
	return a.state.Ball.Clone()
}

func (a *App) State() *State {
	return a.state.Copy()
}

func (a *App) Peer(eid uint32) (PeerEntry, error) {
	return a.peers.Peer(eid)
}

// SetPeers replaces the peer source used for subsequent calls.
func (a *App) SetPeers(peers PeerSource) {
	a.peers = peers
}

func (a *App) SubscribeBallReceived(ch chan<- BallReceived) event.Subscription {
	return a.receivedFeed.Subscribe(ch)
}

func (a *App) SubscribeBallSent(ch chan<- BallSent) event.Subscription {
	return a.sentFeed.Subscribe(ch)
}

// setBall persists v and then makes it the in-memory ball.
func (a *App) setBall(v *uint256.Int) error {
	if err := a.store.SaveBall(v); err != nil {
		return err
	}
	a.state.Ball = v.Clone()
	return nil
}

type outbound struct {
	ball    *uint256.Int
	message []byte
	options []byte
}

// outboundMessage builds the next user-initiated message to peer without
// touching state. Send and QuoteSend share it so a quote prices exactly the
// bytes a send would dispatch.
func (a *App) outboundMessage(peer PeerEntry, returnOptions, options []byte) (*outbound, error) {
	next := codec.SaturatingDecrement(a.state.Ball)
	msg := codec.EncodeABA(next, returnOptions)
	opts, err := peer.EnforcedOptions.Combine(nil, options)
	if err != nil {
		return nil, err
	}
	return &outbound{ball: next, message: msg, options: opts}, nil
}
