package ball

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// EnforcedOptions are the options every message to a peer carries regardless
// of what the caller asks for.
type EnforcedOptions struct {
	Send        hexutil.Bytes `json:"send"`
	SendAndCall hexutil.Bytes `json:"sendAndCall"`
}

// Combine selects the enforced set by whether the message carries a compose
// payload and merges the caller's extra options into it.
func (e EnforcedOptions) Combine(composeMsg, extra []byte) ([]byte, error) {
	enforced := e.Send
	if len(composeMsg) > 0 {
		enforced = e.SendAndCall
	}
	return CombineOptions(enforced, extra)
}

// PeerEntry is the trusted counterpart of this application on a remote chain.
type PeerEntry struct {
	RemoteEID       uint32          `json:"remoteEid"`
	Address         common.Hash     `json:"address"`
	EnforcedOptions EnforcedOptions `json:"enforcedOptions"`
}

func (p PeerEntry) check() error {
	if p.Address == (common.Hash{}) {
		return fmt.Errorf("peer %d: empty address", p.RemoteEID)
	}
	if err := ValidateOptions(p.EnforcedOptions.Send); err != nil {
		return fmt.Errorf("peer %d: enforced send options: %w", p.RemoteEID, err)
	}
	if err := ValidateOptions(p.EnforcedOptions.SendAndCall); err != nil {
		return fmt.Errorf("peer %d: enforced send-and-call options: %w", p.RemoteEID, err)
	}
	return nil
}

// PeerSource resolves the peer configured for a remote endpoint id.
type PeerSource interface {
	Peer(eid uint32) (PeerEntry, error)
}

// PeerRegistry is an immutable set of peers keyed by remote endpoint id.
type PeerRegistry struct {
	peers map[uint32]PeerEntry
}

var _ PeerSource = (*PeerRegistry)(nil)

func NewPeerRegistry(entries ...PeerEntry) (*PeerRegistry, error) {
	peers := make(map[uint32]PeerEntry, len(entries))
	for _, e := range entries {
		if _, ok := peers[e.RemoteEID]; ok {
			return nil, fmt.Errorf("%w: eid %d", ErrDuplicatePeer, e.RemoteEID)
		}
		if err := e.check(); err != nil {
			return nil, err
		}
		peers[e.RemoteEID] = e
	}
	return &PeerRegistry{peers: peers}, nil
}

func (r *PeerRegistry) Peer(eid uint32) (PeerEntry, error) {
	p, ok := r.peers[eid]
	if !ok {
		return PeerEntry{}, fmt.Errorf("%w: eid %d", ErrPeerNotFound, eid)
	}
	return p, nil
}

// EIDs returns the configured remote endpoint ids in ascending order.
func (r *PeerRegistry) EIDs() []uint32 {
	out := make([]uint32, 0, len(r.peers))
	for eid := range r.peers {
		out = append(out, eid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type peerFile struct {
	Peers []peerConfig `toml:"peer"`
}

type peerConfig struct {
	EID                 uint32        `toml:"eid"`
	Address             common.Hash   `toml:"address"`
	EnforcedSend        hexutil.Bytes `toml:"enforced_send"`
	EnforcedSendAndCall hexutil.Bytes `toml:"enforced_send_and_call"`
}

// LoadPeers reads a peer registry from a TOML file of [[peer]] tables.
// Unknown keys are rejected.
func LoadPeers(path string) (*PeerRegistry, error) {
	var file peerFile
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode peers file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in peers file %s: %s", path, strings.Join(keys, ", "))
	}
	entries := make([]PeerEntry, 0, len(file.Peers))
	for _, p := range file.Peers {
		entries = append(entries, PeerEntry{
			RemoteEID: p.EID,
			Address:   p.Address,
			EnforcedOptions: EnforcedOptions{
				Send:        p.EnforcedSend,
				SendAndCall: p.EnforcedSendAndCall,
			},
		})
	}
	return NewPeerRegistry(entries...)
}
