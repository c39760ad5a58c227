package tx

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nspcc-dev/ckb-multisig/cli/input"
	"github.com/nspcc-dev/ckb-multisig/cli/options"
	"github.com/nspcc-dev/ckb-multisig/pkg/encoding/address"
	"github.com/nspcc-dev/ckb-multisig/pkg/envelope"
	"github.com/nspcc-dev/ckb-multisig/pkg/importer"
	"github.com/urfave/cli"
)

// NewCommands returns 'tx' command.
func NewCommands() []cli.Command {
	rpcFlags := append(append([]cli.Flag{}, options.Common...), options.RPC...)
	broadcastFlags := append([]cli.Flag{
		cli.DurationFlag{
			Name:  "await-timeout",
			Usage: "stop waiting for the transaction to be committed after this time (unlimited by default)",
		},
	}, rpcFlags...)
	exportFlags := append([]cli.Flag{
		cli.StringFlag{
			Name:  "format, f",
			Value: importer.FormatEnvelope,
			Usage: "output format: '" + importer.FormatEnvelope + "' or '" + importer.FormatCkbCli + "'",
		},
		cli.StringFlag{
			Name:  "out, o",
			Usage: "file to write to (stdout by default)",
		},
	}, options.Common...)
	return []cli.Command{{
		Name:  "tx",
		Usage: "Co-sign multisig transactions",
		Subcommands: []cli.Command{
			{
				Name:      "import",
				Usage:     "Import transaction documents merging them with the known ones",
				UsageText: "import <file> ...",
				Description: `Reads envelopes or ckb-cli tx.json files and merges each of them
   into the stored envelope of the same transaction. Pending signatures are
   attributed to signers if transaction inputs are already resolved.`,
				Action: importTx,
				Flags:  options.Common,
			},
			{
				Name:   "list",
				Usage:  "List known transactions",
				Action: listTx,
				Flags:  options.Common,
			},
			{
				Name:      "show",
				Usage:     "Show transaction signing status",
				UsageText: "show <hash>",
				Action:    showTx,
				Flags:     options.Common,
			},
			{
				Name:      "resolve",
				Usage:     "Fetch cells consumed by the transaction from the node",
				UsageText: "resolve [--rpc-endpoint <node>] <hash>",
				Action:    resolveTx,
				Flags:     rpcFlags,
			},
			{
				Name:      "sign",
				Usage:     "Sign the transaction with a private key",
				UsageText: "sign [--key-file <file>] <hash>",
				Action:    signTx,
				Flags:     append([]cli.Flag{options.KeyFile}, options.Common...),
			},
			{
				Name:      "export",
				Usage:     "Export the transaction to share it with other signers",
				UsageText: "export [--format <format>] [--out <file>] <hash>",
				Action:    exportTx,
				Flags:     exportFlags,
			},
			{
				Name:      "broadcast",
				Usage:     "Send the ready transaction and wait for it to be committed",
				UsageText: "broadcast [--rpc-endpoint <node>] [--await-timeout <duration>] <hash>",
				Action:    broadcastTx,
				Flags:     broadcastFlags,
			},
			{
				Name:      "delete",
				Usage:     "Forget the transaction",
				UsageText: "delete [--force] <hash>",
				Action:    deleteTx,
				Flags: append([]cli.Flag{cli.BoolFlag{
					Name:  "force",
					Usage: "don't ask for a confirmation",
				}}, options.Common...),
			},
		},
	}}
}

func importTx(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return cli.NewExitError("no files given", 1)
	}
	s, exitErr := options.GetService(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer s.Close()

	for _, file := range ctx.Args() {
		data, err := os.ReadFile(file)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		e, err := s.Import(data)
		if e == nil {
			return cli.NewExitError(fmt.Errorf("%s: %w", file, err), 1)
		}
		if err != nil {
			fmt.Fprintf(ctx.App.ErrWriter, "Warning: %s: %v\n", file, err)
		}
		fmt.Fprintf(ctx.App.Writer, "%s %s\n", e.Hash().StringPrefixed(), e.State)
	}
	return nil
}

func listTx(ctx *cli.Context) error {
	s, exitErr := options.GetService(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer s.Close()

	hashes, err := s.List()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	for _, h := range hashes {
		e, err := s.Get(h)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		fmt.Fprintf(ctx.App.Writer, "%s %s\n", h.StringPrefixed(), e.State)
	}
	return nil
}

func showTx(ctx *cli.Context) error {
	h, exitErr := options.ParseHash(ctx)
	if exitErr != nil {
		return exitErr
	}
	s, exitErr := options.GetService(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer s.Close()

	e, err := s.Get(h)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if err := printEnvelope(ctx.App.Writer, e, s.Config.Network.AddressPrefix()); err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}

func printEnvelope(w io.Writer, e *envelope.Envelope, prefix string) error {
	fmt.Fprintf(w, "Hash:\t%s\n", e.Hash().StringPrefixed())
	fmt.Fprintf(w, "State:\t%s\n", e.State)
	fmt.Fprintf(w, "Inputs:\t%d (resolved: %t)\n", len(e.Payload.Inputs), e.IsResolved())
	fmt.Fprintf(w, "Pending signatures:\t%d\n", e.Pending.Len())
	actions, err := e.MultisigActions()
	if err != nil {
		return err
	}
	for _, a := range actions {
		addr, err := address.Encode(a.Config.Lock(), prefix)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\n", addr)
		fmt.Fprintf(w, "\tStatus:\t%s (%d of %d)\n", a.Status(), len(a.Signed), a.Config.Threshold)
		for i, pkh := range a.Config.Signers {
			mark := " "
			if a.HasSigned(pkh) {
				mark = "+"
			}
			req := ""
			if i < int(a.Config.RequireFirstN) {
				req = " (required)"
			}
			fmt.Fprintf(w, "\t[%s] %s%s\n", mark, pkh.StringPrefixed(), req)
		}
	}
	for _, g := range e.GroupByLockScript() {
		var in, out uint64
		for _, c := range g.Inputs {
			in += uint64(c.Output.Capacity)
		}
		for _, c := range g.Outputs {
			out += uint64(c.Output.Capacity)
		}
		fmt.Fprintf(w, "Lock %s:\t%d inputs (%d shannons), %d outputs (%d shannons)\n",
			g.ScriptHash.StringPrefixed(), len(g.Inputs), in, len(g.Outputs), out)
	}
	return nil
}

func resolveTx(ctx *cli.Context) error {
	h, exitErr := options.ParseHash(ctx)
	if exitErr != nil {
		return exitErr
	}
	s, exitErr := options.GetService(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer s.Close()

	gctx, cancel := options.GetTimeoutContext(0)
	defer cancel()
	e, err := s.ResolveInputs(gctx, h)
	if e == nil {
		return cli.NewExitError(err, 1)
	}
	if err != nil {
		fmt.Fprintf(ctx.App.ErrWriter, "Warning: %v\n", err)
	}
	fmt.Fprintf(ctx.App.Writer, "%s %s\n", h.StringPrefixed(), e.State)
	return nil
}

func signTx(ctx *cli.Context) error {
	h, exitErr := options.ParseHash(ctx)
	if exitErr != nil {
		return exitErr
	}
	priv, err := options.GetPrivateKey(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	s, exitErr := options.GetService(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer s.Close()

	e, n, err := s.Sign(h, priv)
	if err != nil {
		if errors.Is(err, envelope.ErrMissingResolvedInputs) {
			err = fmt.Errorf("%w, use 'tx resolve' first", err)
		}
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "Signed %d lock(s), %s %s\n", n, h.StringPrefixed(), e.State)
	return nil
}

func exportTx(ctx *cli.Context) error {
	h, exitErr := options.ParseHash(ctx)
	if exitErr != nil {
		return exitErr
	}
	s, exitErr := options.GetService(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer s.Close()

	data, err := s.Export(h, ctx.String("format"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if out := ctx.String("out"); out != "" {
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return cli.NewExitError(err, 1)
		}
		return nil
	}
	fmt.Fprintln(ctx.App.Writer, string(data))
	return nil
}

func broadcastTx(ctx *cli.Context) error {
	h, exitErr := options.ParseHash(ctx)
	if exitErr != nil {
		return exitErr
	}
	s, exitErr := options.GetService(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer s.Close()

	gctx, cancel := options.GetTimeoutContext(ctx.Duration("await-timeout"))
	defer cancel()
	st, err := s.Broadcast(gctx, h)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "%s %s\n", h.StringPrefixed(), st.Status)
	if st.BlockHash != nil {
		fmt.Fprintf(ctx.App.Writer, "Block: %s\n", st.BlockHash.StringPrefixed())
	}
	if st.Reason != nil {
		fmt.Fprintf(ctx.App.Writer, "Reason: %s\n", *st.Reason)
	}
	return nil
}

func deleteTx(ctx *cli.Context) error {
	h, exitErr := options.ParseHash(ctx)
	if exitErr != nil {
		return exitErr
	}
	if !ctx.Bool("force") {
		if err := input.Confirm(fmt.Sprintf("Transaction %s will be forgotten.", h.StringPrefixed())); err != nil {
			return cli.NewExitError(err, 1)
		}
	}
	s, exitErr := options.GetService(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer s.Close()

	if err := s.Delete(h); err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}
