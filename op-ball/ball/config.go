package ball

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/jinmel/interop/op-ball/flags"
	oplog "github.com/jinmel/interop/op-service/log"
	opmetrics "github.com/jinmel/interop/op-service/metrics"
	oprpc "github.com/jinmel/interop/op-service/rpc"
)

const (
	TransportLoopback = "loopback"
	TransportEVM      = "evm"
)

type CLIConfig struct {
	EID      uint32
	Address  common.Hash
	Admin    common.Hash
	Deployer common.Hash
	Endpoint common.Hash
	Pattern  Pattern

	PeersFile  string
	WatchPeers bool

	DataDir   string
	StoreSeed string

	Transport       string
	L1EthRpc        string
	EndpointAddress common.Address
	PrivateKey      string

	RPC           oprpc.CLIConfig
	LogConfig     oplog.CLIConfig
	MetricsConfig opmetrics.CLIConfig
}

func (c *CLIConfig) Check() error {
	if c.EID == 0 {
		return errors.New("eid must be set")
	}
	if c.Address == (common.Hash{}) {
		return errors.New("oapp address must be set")
	}
	if c.Admin == (common.Hash{}) {
		return errors.New("admin must be set")
	}
	if _, err := ParsePattern(string(c.Pattern)); err != nil {
		return err
	}
	if c.PeersFile == "" {
		return errors.New("peers file must be set")
	}
	if c.StoreSeed == "" {
		return errors.New("store seed must not be empty")
	}
	switch c.Transport {
	case TransportLoopback:
	case TransportEVM:
		if c.L1EthRpc == "" {
			return errors.New("evm transport requires an RPC url")
		}
		if c.EndpointAddress == (common.Address{}) {
			return errors.New("evm transport requires an endpoint address")
		}
		if c.PrivateKey == "" {
			return errors.New("evm transport requires a private key")
		}
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if err := c.RPC.Check(); err != nil {
		return err
	}
	if err := c.LogConfig.Check(); err != nil {
		return err
	}
	return c.MetricsConfig.Check()
}

func NewConfig(ctx *cli.Context) *CLIConfig {
	cfg := &CLIConfig{
		EID:      uint32(ctx.Uint(flags.EIDFlag.Name)),
		Address:  common.HexToHash(ctx.String(flags.OAppAddressFlag.Name)),
		Admin:    common.HexToHash(ctx.String(flags.AdminFlag.Name)),
		Deployer: common.HexToHash(ctx.String(flags.DeployerFlag.Name)),
		Endpoint: common.HexToHash(ctx.String(flags.EndpointIDFlag.Name)),
		Pattern:  Pattern(ctx.String(flags.PatternFlag.Name)),

		PeersFile:  ctx.String(flags.PeersFileFlag.Name),
		WatchPeers: ctx.Bool(flags.WatchPeersFlag.Name),

		DataDir:   ctx.String(flags.DataDirFlag.Name),
		StoreSeed: ctx.String(flags.StoreSeedFlag.Name),

		Transport:       ctx.String(flags.TransportFlag.Name),
		L1EthRpc:        ctx.String(flags.L1EthRpcFlag.Name),
		EndpointAddress: common.HexToAddress(ctx.String(flags.EndpointAddressFlag.Name)),
		PrivateKey:      ctx.String(flags.PrivateKeyFlag.Name),

		RPC:           oprpc.ReadCLIConfig(ctx),
		LogConfig:     oplog.ReadCLIConfig(ctx),
		MetricsConfig: opmetrics.ReadCLIConfig(ctx),
	}
	if cfg.Deployer == (common.Hash{}) {
		cfg.Deployer = cfg.Admin
	}
	return cfg
}
