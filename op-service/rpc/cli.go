package rpc

import (
	"errors"
	"math"

	"github.com/urfave/cli/v2"

	opservice "github.com/jinmel/interop/op-service"
)

const (
	ListenAddrFlagName = "rpc.addr"
	PortFlagName       = "rpc.port"
	EnableWSFlagName   = "rpc.enable-ws"
)

func CLIFlags(envPrefix string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    ListenAddrFlagName,
			Usage:   "rpc listening address",
			Value:   "0.0.0.0",
			EnvVars: opservice.PrefixEnvVar(envPrefix, "RPC_ADDR"),
		},
		&cli.IntFlag{
			Name:    PortFlagName,
			Usage:   "rpc listening port",
			Value:   8545,
			EnvVars: opservice.PrefixEnvVar(envPrefix, "RPC_PORT"),
		},
		&cli.BoolFlag{
			Name:    EnableWSFlagName,
			Usage:   "Serve websocket connections (needed for event subscriptions) on the rpc port",
			Value:   true,
			EnvVars: opservice.PrefixEnvVar(envPrefix, "RPC_ENABLE_WS"),
		},
	}
}

type CLIConfig struct {
	ListenAddr string
	ListenPort int
	EnableWS   bool
}

func DefaultCLIConfig() CLIConfig {
	return CLIConfig{
		ListenAddr: "0.0.0.0",
		ListenPort: 8545,
		EnableWS:   true,
	}
}

func (c CLIConfig) Check() error {
	if c.ListenPort < 0 || c.ListenPort > math.MaxUint16 {
		return errors.New("invalid RPC port")
	}
	return nil
}

func ReadCLIConfig(ctx *cli.Context) CLIConfig {
	return CLIConfig{
		ListenAddr: ctx.String(ListenAddrFlagName),
		ListenPort: ctx.Int(PortFlagName),
		EnableWS:   ctx.Bool(EnableWSFlagName),
	}
}
