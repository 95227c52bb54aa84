package ball

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/jinmel/interop/op-ball/transport"
)

// Relay plays the executor on a loopback network: it pops queued packets and
// delivers them to the host registered for their destination.
type Relay struct {
	log log.Logger
	net *transport.Loopback

	mu    sync.Mutex
	hosts map[uint32]*Host
}

func NewRelay(log log.Logger, net *transport.Loopback) *Relay {
	return &Relay{log: log, net: net, hosts: make(map[uint32]*Host)}
}

func (r *Relay) Register(eid uint32, h *Host) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hosts[eid] = h
}

func (r *Relay) registered() ([]uint32, map[uint32]*Host) {
	r.mu.Lock()
	defer r.mu.Unlock()
	hosts := make(map[uint32]*Host, len(r.hosts))
	eids := make([]uint32, 0, len(r.hosts))
	for eid, h := range r.hosts {
		hosts[eid] = h
		eids = append(eids, eid)
	}
	sort.Slice(eids, func(i, j int) bool { return eids[i] < eids[j] })
	return eids, hosts
}

// Drain delivers packets until no registered destination has any queued,
// including packets produced by the deliveries themselves. A packet whose
// delivery fails is dropped and the error returned.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	eids, hosts := r.registered()
	delivered := 0
	for {
		progress := false
		for _, eid := range eids {
			pkt, ok := r.net.Next(eid)
			if !ok {
				continue
			}
			progress = true
			if err := hosts[eid].Receive(ctx, pkt); err != nil {
				return delivered, err
			}
			delivered++
		}
		if !progress || ctx.Err() != nil {
			return delivered, ctx.Err()
		}
	}
}

// Run drains the network every interval until ctx is done.
func (r *Relay) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.Drain(ctx)
			if err != nil && ctx.Err() == nil {
				r.log.Warn("Failed to deliver loopback packet", "err", err)
			}
			if n > 0 {
				r.log.Debug("Delivered loopback packets", "count", n)
			}
		}
	}
}
