package ball

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/jinmel/interop/op-ball/flags"
	"github.com/jinmel/interop/op-ball/metrics"
	"github.com/jinmel/interop/op-ball/storage"
	"github.com/jinmel/interop/op-ball/transport"
	opservice "github.com/jinmel/interop/op-service"
	"github.com/jinmel/interop/op-service/cliapp"
	"github.com/jinmel/interop/op-service/dial"
	oplog "github.com/jinmel/interop/op-service/log"
	opmetrics "github.com/jinmel/interop/op-service/metrics"
	oprpc "github.com/jinmel/interop/op-service/rpc"
	"github.com/jinmel/interop/op-service/sources"
)

const relayInterval = 200 * time.Millisecond

// Main is the entrypoint into the ball service.
func Main(version string) cliapp.LifecycleAction {
	return func(cliCtx *cli.Context, _ context.CancelCauseFunc) (cliapp.Lifecycle, error) {
		cfg := NewConfig(cliCtx)
		if err := cfg.Check(); err != nil {
			return nil, fmt.Errorf("invalid CLI flags: %w", err)
		}

		l := oplog.NewLogger(oplog.AppOut(cliCtx), cfg.LogConfig)
		oplog.SetGlobalLogHandler(l)
		opservice.ValidateEnvVars(flags.EnvVarPrefix, flags.Flags, l)

		l.Info("Initializing ball service", "eid", cfg.EID, "pattern", cfg.Pattern, "transport", cfg.Transport)
		return NewBallService(cliCtx.Context, version, cfg, l)
	}
}

type BallService struct {
	Log     log.Logger
	Metrics *metrics.Metrics
	Version string

	kv       storage.KV
	Host     *Host
	Loopback *transport.Loopback

	ethClient   *ethclient.Client
	relay       *Relay
	relayCancel context.CancelFunc
	peerWatcher *PeerWatcher

	// operator is the identity this process acts as when initializing the store.
	operator common.Hash
	// counterparts are the simulated peer applications of loopback mode, by eid.
	counterparts map[uint32]*Host

	rpcServer     *oprpc.Server
	metricsConfig opmetrics.CLIConfig
	metricsServer *opmetrics.HTTPServer

	stopped atomic.Bool
}

func NewBallService(ctx context.Context, version string, cfg *CLIConfig, log log.Logger) (*BallService, error) {
	var bs BallService
	if err := bs.initFromCLIConfig(ctx, version, cfg, log); err != nil {
		return nil, errors.Join(err, bs.Stop(ctx))
	}
	return &bs, nil
}

func (bs *BallService) initFromCLIConfig(ctx context.Context, version string, cfg *CLIConfig, log log.Logger) error {
	bs.Version = version
	bs.Log = log
	bs.Metrics = metrics.NewMetrics("default")
	bs.metricsConfig = cfg.MetricsConfig

	peers, err := LoadPeers(cfg.PeersFile)
	if err != nil {
		return fmt.Errorf("failed to load peers: %w", err)
	}
	tr, err := bs.initTransport(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to init transport: %w", err)
	}
	state, store, err := bs.initStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to init store: %w", err)
	}

	app := NewApp(bs.Log, Config{
		Address:   cfg.Address,
		Pattern:   cfg.Pattern,
		ReturnFee: EstimatedReturnFee(),
	}, store, state, peers, tr, bs.Metrics)
	bs.Host = NewHost(app)

	if bs.Loopback != nil {
		if err := bs.initLoopbackNetwork(cfg, peers); err != nil {
			return fmt.Errorf("failed to init loopback network: %w", err)
		}
	}
	if cfg.WatchPeers {
		if err := bs.initPeerWatcher(cfg); err != nil {
			return fmt.Errorf("failed to watch peers: %w", err)
		}
	}
	bs.initRPCServer(cfg)
	return nil
}

func (bs *BallService) initStore(cfg *CLIConfig) (*State, *Store, error) {
	if cfg.DataDir == "" {
		bs.Log.Warn("No data directory set, state will not survive a restart")
		bs.kv = storage.NewMemory()
	} else {
		kv, err := storage.OpenPebble(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		bs.kv = kv
	}

	store := NewStore(bs.kv, cfg.StoreSeed)
	state, err := loadOrInitState(bs.Log, store, bs.operator, cfg)
	if err != nil {
		return nil, nil, err
	}
	return state, store, nil
}

// loadOrInitState loads the state record, creating it on first start. Creation
// is done as caller and fails unless caller is the configured deployer.
func loadOrInitState(log log.Logger, store *Store, caller common.Hash, cfg *CLIConfig) (*State, error) {
	state, err := store.Load()
	if !errors.Is(err, ErrStoreNotInitialized) {
		return state, err
	}
	state, err = store.Init(caller, cfg.Deployer, InitParams{Admin: cfg.Admin, Endpoint: cfg.Endpoint})
	if err != nil {
		return nil, err
	}
	log.Info("Initialized store", "seed", cfg.StoreSeed, "admin", state.Admin, "deployer", cfg.Deployer, "ball", ballString(state.Ball))
	return state, nil
}

func (bs *BallService) initTransport(ctx context.Context, cfg *CLIConfig) (transport.Transport, error) {
	if cfg.Transport == TransportLoopback {
		// Nothing signs on a loopback network; the operator acts as the deployer.
		bs.operator = cfg.Deployer
		bs.Loopback = transport.NewLoopback(transport.DefaultLoopbackConfig())
		return bs.Loopback.Endpoint(cfg.EID), nil
	}

	client, err := dial.DialEthClientWithTimeout(ctx, dial.DefaultDialTimeout, bs.Log, cfg.L1EthRpc)
	if err != nil {
		return nil, fmt.Errorf("failed to dial endpoint chain: %w", err)
	}
	bs.ethClient = client
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chain id: %w", err)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	endpoint, err := sources.NewEndpointClient(bs.Log, client, &sources.EndpointConfig{
		Address: cfg.EndpointAddress,
		ChainID: chainID,
	}, key)
	if err != nil {
		return nil, err
	}
	bs.operator = common.BytesToHash(endpoint.From().Bytes())
	bs.Log.Info("Using endpoint contract", "address", cfg.EndpointAddress, "chain_id", chainID, "from", endpoint.From())
	return transport.NewEVM(bs.Log, endpoint, endpoint.From()), nil
}

// initLoopbackNetwork gives every configured peer a simulated application on
// the loopback network, running the pattern opposite to this node's, and
// starts relaying between them. A node cannot be its own peer: it runs a
// single pattern and so cannot accept both legs of a round trip.
func (bs *BallService) initLoopbackNetwork(cfg *CLIConfig, peers *PeerRegistry) error {
	bs.relay = NewRelay(bs.Log, bs.Loopback)
	bs.relay.Register(cfg.EID, bs.Host)
	bs.counterparts = make(map[uint32]*Host)
	for _, eid := range peers.EIDs() {
		if eid == cfg.EID {
			return fmt.Errorf("%w: eid %d", ErrSelfPeer, eid)
		}
		peer, err := peers.Peer(eid)
		if err != nil {
			return err
		}
		host, err := newCounterpart(bs.Log.New("counterpart", eid), bs.Loopback, cfg, peer)
		if err != nil {
			return fmt.Errorf("counterpart %d: %w", eid, err)
		}
		bs.counterparts[eid] = host
		bs.relay.Register(eid, host)
	}
	bs.Log.Info("Simulating loopback peers", "eids", peers.EIDs(), "pattern", cfg.Pattern.Counterpart())
	return nil
}

func newCounterpart(log log.Logger, net *transport.Loopback, cfg *CLIConfig, peer PeerEntry) (*Host, error) {
	reg, err := NewPeerRegistry(PeerEntry{RemoteEID: cfg.EID, Address: cfg.Address})
	if err != nil {
		return nil, err
	}
	store := NewStore(storage.NewMemory(), DefaultStoreSeed)
	state, err := store.Init(cfg.Deployer, cfg.Deployer, InitParams{Admin: cfg.Admin, Endpoint: cfg.Endpoint})
	if err != nil {
		return nil, err
	}
	app := NewApp(log, Config{
		Address:   peer.Address,
		Pattern:   cfg.Pattern.Counterpart(),
		ReturnFee: EstimatedReturnFee(),
	}, store, state, reg, net.Endpoint(peer.RemoteEID), metrics.NoopMetrics)
	return NewHost(app), nil
}

func (bs *BallService) initPeerWatcher(cfg *CLIConfig) error {
	w, err := NewPeerWatcher(bs.Log, cfg.PeersFile, func(reg *PeerRegistry) {
		bs.Host.SetPeers(reg)
	})
	if err != nil {
		return err
	}
	bs.peerWatcher = w
	return nil
}

func (bs *BallService) initRPCServer(cfg *CLIConfig) {
	server := oprpc.NewServer(
		cfg.RPC.ListenAddr,
		cfg.RPC.ListenPort,
		bs.Version,
		oprpc.WithLogger(bs.Log),
		oprpc.WithWebsocketEnabled(cfg.RPC.EnableWS),
	)
	server.AddAPI(GetBallAPI(NewBallAPI(bs.Host)))
	bs.Log.Info("Ball API enabled")
	bs.rpcServer = server
}

func (bs *BallService) Start(ctx context.Context) error {
	bs.Log.Info("Starting ball service")

	var g errgroup.Group
	g.Go(func() error {
		if err := bs.rpcServer.Start(); err != nil {
			return fmt.Errorf("failed to start RPC server: %w", err)
		}
		return nil
	})
	if bs.metricsConfig.Enabled {
		g.Go(func() error {
			srv, err := opmetrics.StartServer(bs.Metrics.Registry(), bs.metricsConfig.ListenAddr, bs.metricsConfig.ListenPort)
			if err != nil {
				return fmt.Errorf("failed to start metrics server: %w", err)
			}
			bs.Log.Info("Started metrics server", "addr", srv.Addr())
			bs.metricsServer = srv
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if bs.peerWatcher != nil {
		bs.peerWatcher.Start()
	}
	if bs.relay != nil {
		relayCtx, cancel := context.WithCancel(context.Background())
		bs.relayCancel = cancel
		go bs.relay.Run(relayCtx, relayInterval)
	}
	bs.Metrics.RecordInfo(bs.Version)
	bs.Metrics.RecordUp()
	return nil
}

func (bs *BallService) Stop(ctx context.Context) error {
	bs.Log.Info("Stopping ball service")
	var result error
	if bs.relayCancel != nil {
		bs.relayCancel()
	}
	if bs.rpcServer != nil {
		if err := bs.rpcServer.Stop(); err != nil {
			result = errors.Join(result, fmt.Errorf("failed to stop RPC server: %w", err))
		}
	}
	if bs.peerWatcher != nil {
		if err := bs.peerWatcher.Close(); err != nil {
			result = errors.Join(result, fmt.Errorf("failed to stop peer watcher: %w", err))
		}
	}
	if bs.metricsServer != nil {
		if err := bs.metricsServer.Stop(ctx); err != nil {
			result = errors.Join(result, fmt.Errorf("failed to stop metrics server: %w", err))
		}
	}
	if bs.ethClient != nil {
		bs.ethClient.Close()
	}
	if bs.kv != nil {
		if err := bs.kv.Close(); err != nil {
			result = errors.Join(result, fmt.Errorf("failed to close store: %w", err))
		}
	}

	if result == nil {
		bs.stopped.Store(true)
		bs.Log.Info("Ball service stopped")
	}
	return result
}

func (bs *BallService) Stopped() bool {
	return bs.stopped.Load()
}

// RPCEndpoint is the address the RPC server listens on once started.
func (bs *BallService) RPCEndpoint() string {
	return bs.rpcServer.Endpoint()
}
