package addressbook

import (
	"fmt"
	"os"
	"strings"

	"github.com/nspcc-dev/ckb-multisig/cli/options"
	"github.com/nspcc-dev/ckb-multisig/pkg/core/transaction"
	"github.com/nspcc-dev/ckb-multisig/pkg/encoding/address"
	"github.com/nspcc-dev/ckb-multisig/pkg/multisig"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
	"github.com/urfave/cli"
)

// NewCommands returns 'address' command.
func NewCommands() []cli.Command {
	newFlags := append([]cli.Flag{
		cli.UintFlag{
			Name:  "threshold",
			Usage: "number of signatures required (M)",
		},
		cli.UintFlag{
			Name:  "require-first-n",
			Usage: "number of leading signers that must sign (R)",
		},
	}, options.Common...)
	return []cli.Command{{
		Name:  "address",
		Usage: "Manage the multisig address book",
		Subcommands: []cli.Command{
			{
				Name:      "new",
				Usage:     "Add a multisig address",
				UsageText: "new --threshold <m> [--require-first-n <r>] <signer address> ...",
				Action:    newAddress,
				Flags:     newFlags,
			},
			{
				Name:   "list",
				Usage:  "List multisig addresses",
				Action: listAddresses,
				Flags:  options.Common,
			},
			{
				Name:      "delete",
				Usage:     "Delete a multisig address",
				UsageText: "delete <address or lock args>",
				Action:    deleteAddress,
				Flags:     options.Common,
			},
			{
				Name:      "import",
				Usage:     "Import multisig addresses from ckb-cli tx.json",
				UsageText: "import <file>",
				Action:    importAddresses,
				Flags:     options.Common,
			},
		},
	}}
}

func newAddress(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return cli.NewExitError("no signer addresses given", 1)
	}
	if ctx.Uint("threshold") > multisig.MaxSigners || ctx.Uint("require-first-n") > multisig.MaxSigners {
		return cli.NewExitError(fmt.Errorf("%w: too many signatures required", multisig.ErrInvalidConfig), 1)
	}
	cfg := multisig.Config{
		RequireFirstN: byte(ctx.Uint("require-first-n")),
		Threshold:     byte(ctx.Uint("threshold")),
	}
	for _, a := range ctx.Args() {
		pkh, err := address.DecodeSecp256k1(a)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("signer %s: %w", a, err), 1)
		}
		cfg.Signers = append(cfg.Signers, pkh)
	}

	s, exitErr := options.GetService(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer s.Close()

	addr, err := s.AddAddress(cfg)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, addr)
	return nil
}

func listAddresses(ctx *cli.Context) error {
	if ctx.NArg() != 0 {
		return cli.NewExitError("no arguments expected", 1)
	}
	s, exitErr := options.GetService(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer s.Close()

	cfgs, err := s.Addresses()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	prefix := s.Config.Network.AddressPrefix()
	for i := range cfgs {
		if err := printConfig(ctx, &cfgs[i], prefix); err != nil {
			return cli.NewExitError(err, 1)
		}
	}
	return nil
}

func printConfig(ctx *cli.Context, cfg *multisig.Config, prefix string) error {
	addr, err := address.Encode(cfg.Lock(), prefix)
	if err != nil {
		return err
	}
	w := ctx.App.Writer
	fmt.Fprintf(w, "%s\n", addr)
	fmt.Fprintf(w, "\tArgs: %s\n", cfg.Args().StringPrefixed())
	fmt.Fprintf(w, "\tThreshold: %d of %d, first %d required\n", cfg.Threshold, len(cfg.Signers), cfg.RequireFirstN)
	for _, pkh := range cfg.Signers {
		signer, err := address.Encode(transaction.NewSecp256k1Lock(pkh), prefix)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\t\t%s\n", signer)
	}
	return nil
}

// parseArgs accepts either a multisig address or lock args.
func parseArgs(s string) (util.Uint160, error) {
	if strings.HasPrefix(s, "0x") {
		return util.Uint160DecodeString(s)
	}
	_, script, err := address.Decode(s)
	if err != nil {
		return util.Uint160{}, err
	}
	if !script.IsMultisigLock() {
		return util.Uint160{}, fmt.Errorf("%s is not a multisig address", s)
	}
	return util.Uint160DecodeBytes(script.Args)
}

func deleteAddress(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("address is expected as the only argument", 1)
	}
	args, err := parseArgs(ctx.Args().First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	s, exitErr := options.GetService(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer s.Close()

	if err := s.DeleteAddress(args); err != nil {
		return cli.NewExitError(fmt.Errorf("can't delete %s: %w", args.StringPrefixed(), err), 1)
	}
	return nil
}

func importAddresses(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("file name is expected as the only argument", 1)
	}
	data, err := os.ReadFile(ctx.Args().First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	s, exitErr := options.GetService(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer s.Close()

	addrs, err := s.ImportAddresses(data)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	for _, a := range addrs {
		fmt.Fprintln(ctx.App.Writer, a)
	}
	return nil
}
