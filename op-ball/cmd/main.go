package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/jinmel/interop/op-ball/ball"
	"github.com/jinmel/interop/op-ball/flags"
	opservice "github.com/jinmel/interop/op-service"
	"github.com/jinmel/interop/op-service/cliapp"
	oplog "github.com/jinmel/interop/op-service/log"
	"github.com/jinmel/interop/op-service/opio"
)

var (
	Version   = "v0.0.1"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	oplog.SetupDefaults()

	ctx := opio.WithInterruptBlocker(context.Background())
	err := newApp().RunContext(ctx, os.Args)
	if err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Version = opservice.FormatVersion(Version, GitCommit, GitDate, "")
	app.Name = "op-ball"
	app.Usage = "cross-chain ball passing application"
	app.Description = "Service that holds a counter, passes it to peers on other chains and bounces back every ball it receives"
	app.Action = cliapp.LifecycleCmd(ball.Main(Version))
	app.Commands = []*cli.Command{
		{
			Name:   "check-peers",
			Usage:  "Validates the --peers file and lists the configured peers",
			Action: checkPeers,
		},
	}
	return app
}

func checkPeers(ctx *cli.Context) error {
	path := ctx.String(flags.PeersFileFlag.Name)
	if path == "" {
		return fmt.Errorf("--%s is required", flags.PeersFileFlag.Name)
	}
	peers, err := ball.LoadPeers(path)
	if err != nil {
		return err
	}
	for _, eid := range peers.EIDs() {
		peer, err := peers.Peer(eid)
		if err != nil {
			return err
		}
		fmt.Fprintf(ctx.App.Writer, "%d\t%s\tsend=%x\tsendAndCall=%x\n",
			eid, peer.Address.Hex(), peer.EnforcedOptions.Send, peer.EnforcedOptions.SendAndCall)
	}
	return nil
}
