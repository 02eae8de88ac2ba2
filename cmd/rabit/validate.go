package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rabit-sh/rabit/pkg/types"
)

var validateCmd = &cobra.Command{
	Use:   "validate <uri-or-path>",
	Short: "Validate a burrow or warren manifest file",
	Long: `Load an exact manifest file and report schema violations: missing
required fields, wrong kind, or entry-count overflow. The file may live on
any supported transport.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	ctx := context.Background()
	out := cmd.OutOrStdout()
	ok := color.New(color.FgHiGreen)

	burrow, burrowErr := client.LoadBurrowFile(ctx, args[0])
	if burrowErr == nil {
		ok.Fprintf(out, "valid burrow") //nolint:errcheck
		fmt.Fprintf(out, "  %s (%d entries, specVersion %s)\n",
			title(burrow.Title), len(burrow.Entries), burrow.SpecVersion)
		return nil
	}

	warren, warrenErr := client.LoadWarrenFile(ctx, args[0])
	if warrenErr == nil {
		ok.Fprintf(out, "valid warren") //nolint:errcheck
		fmt.Fprintf(out, "  %s (%d burrows, %d warrens, specVersion %s)\n",
			title(warren.Title), len(warren.Burrows), len(warren.Warrens), warren.SpecVersion)
		return nil
	}

	// Report the more specific of the two failures: a kind mismatch on
	// one side usually means the document was meant as the other.
	if types.IsKind(warrenErr, types.ErrInvalidManifest) && !types.IsKind(burrowErr, types.ErrInvalidManifest) {
		return warrenErr
	}
	return burrowErr
}
