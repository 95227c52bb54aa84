package flags

import (
	"github.com/urfave/cli/v2"

	opservice "github.com/jinmel/interop/op-service"
	oplog "github.com/jinmel/interop/op-service/log"
	opmetrics "github.com/jinmel/interop/op-service/metrics"
	oprpc "github.com/jinmel/interop/op-service/rpc"
)

const EnvVarPrefix = "OP_BALL"

func prefixEnvVars(name string) []string {
	return opservice.PrefixEnvVar(EnvVarPrefix, name)
}

var (
	EIDFlag = &cli.UintFlag{
		Name:    "eid",
		Usage:   "Endpoint id of the chain this instance runs on",
		EnvVars: prefixEnvVars("EID"),
	}
	OAppAddressFlag = &cli.StringFlag{
		Name:    "oapp-address",
		Usage:   "32-byte identity of this application on the transport",
		EnvVars: prefixEnvVars("OAPP_ADDRESS"),
	}
	AdminFlag = &cli.StringFlag{
		Name:    "admin",
		Usage:   "32-byte admin identity recorded when the store is initialized",
		EnvVars: prefixEnvVars("ADMIN"),
	}
	DeployerFlag = &cli.StringFlag{
		Name:    "deployer",
		Usage:   "32-byte identity allowed to initialize the store. Defaults to the admin",
		EnvVars: prefixEnvVars("DEPLOYER"),
	}
	EndpointIDFlag = &cli.StringFlag{
		Name:    "endpoint-id",
		Usage:   "32-byte identity of the transport program recorded in the store",
		EnvVars: prefixEnvVars("ENDPOINT_ID"),
	}
	PatternFlag = &cli.StringFlag{
		Name:    "pattern",
		Usage:   "Inbound message pattern: aba or vanilla",
		Value:   "aba",
		EnvVars: prefixEnvVars("PATTERN"),
	}
	PeersFileFlag = &cli.StringFlag{
		Name:    "peers",
		Usage:   "Path to the TOML peer configuration",
		EnvVars: prefixEnvVars("PEERS"),
	}
	WatchPeersFlag = &cli.BoolFlag{
		Name:    "peers.watch",
		Usage:   "Reload the peer configuration when the file changes",
		EnvVars: prefixEnvVars("PEERS_WATCH"),
	}
	DataDirFlag = &cli.StringFlag{
		Name:    "datadir",
		Usage:   "Directory of the state database. Empty keeps state in memory",
		EnvVars: prefixEnvVars("DATADIR"),
	}
	StoreSeedFlag = &cli.StringFlag{
		Name:    "store.seed",
		Usage:   "Key prefix of the state records",
		Value:   "Store",
		EnvVars: prefixEnvVars("STORE_SEED"),
	}
	TransportFlag = &cli.StringFlag{
		Name:    "transport",
		Usage:   "Message transport: loopback or evm",
		Value:   "loopback",
		EnvVars: prefixEnvVars("TRANSPORT"),
	}
	L1EthRpcFlag = &cli.StringFlag{
		Name:    "l1-eth-rpc",
		Usage:   "HTTP provider URL of the chain hosting the endpoint contract",
		EnvVars: prefixEnvVars("L1_ETH_RPC"),
	}
	EndpointAddressFlag = &cli.StringFlag{
		Name:    "endpoint-address",
		Usage:   "Address of the endpoint contract",
		EnvVars: prefixEnvVars("ENDPOINT_ADDRESS"),
	}
	PrivateKeyFlag = &cli.StringFlag{
		Name:    "private-key",
		Usage:   "Hex private key used to sign endpoint transactions",
		EnvVars: prefixEnvVars("PRIVATE_KEY"),
	}
)

func init() {
	Flags = []cli.Flag{
		EIDFlag,
		OAppAddressFlag,
		AdminFlag,
		DeployerFlag,
		EndpointIDFlag,
		PatternFlag,
		PeersFileFlag,
		WatchPeersFlag,
		DataDirFlag,
		StoreSeedFlag,
		TransportFlag,
		L1EthRpcFlag,
		EndpointAddressFlag,
		PrivateKeyFlag,
	}

	Flags = append(Flags, oprpc.CLIFlags(EnvVarPrefix)...)
	Flags = append(Flags, oplog.CLIFlags(EnvVarPrefix)...)
	Flags = append(Flags, opmetrics.CLIFlags(EnvVarPrefix)...)
}

var Flags []cli.Flag
