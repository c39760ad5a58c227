package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/nspcc-dev/ckb-multisig/cli/addressbook"
	"github.com/nspcc-dev/ckb-multisig/cli/tx"
	"github.com/nspcc-dev/ckb-multisig/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "ckb-multisig\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates an instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "ckb-multisig"
	ctl.Version = config.Version
	ctl.Usage = "Out-of-band CKB multisig transaction co-signing"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, addressbook.NewCommands()...)
	ctl.Commands = append(ctl.Commands, tx.NewCommands()...)
	return ctl
}
