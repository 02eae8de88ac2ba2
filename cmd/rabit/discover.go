package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rabit-sh/rabit"
)

var (
	discoverParents int
	discoverJSON    bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover <uri>",
	Short: "Locate a burrow or warren for a location",
	Long: `Probe a location for burrow and warren manifests under their well-known
names (.burrow.json, burrow.json, .well-known/burrow.json and the warren
mirror), walking up parent locations when nothing is found.`,
	Args: cobra.ExactArgs(1),
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().IntVar(&discoverParents, "parents", -1, "Parent levels to probe, 0 for none (default 2)")
	discoverCmd.Flags().BoolVar(&discoverJSON, "json", false, "Emit JSON output")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	// Flag -1 means unset; an explicit 0 maps to the no-walk sentinel.
	var opts rabit.DiscoverOptions
	switch {
	case discoverParents == 0:
		opts.MaxParentWalk = -1
	case discoverParents > 0:
		opts.MaxParentWalk = discoverParents
	}
	result, err := client.Discover(context.Background(), args[0], opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if discoverJSON {
		return json.NewEncoder(out).Encode(result)
	}
	if !result.Found() {
		return fmt.Errorf("no burrow or warren found at %s", args[0])
	}

	found := color.New(color.FgHiGreen)
	if result.Burrow != nil {
		found.Fprintf(out, "burrow") //nolint:errcheck
		fmt.Fprintf(out, "  %s (%d entries)\n", title(result.Burrow.Title), len(result.Burrow.Entries))
	}
	if result.Warren != nil {
		found.Fprintf(out, "warren") //nolint:errcheck
		fmt.Fprintf(out, "  %s (%d burrows, %d warrens)\n",
			title(result.Warren.Title), len(result.Warren.Burrows), len(result.Warren.Warrens))
	}
	fmt.Fprintf(out, "base:  %s\n", result.BaseURI)
	fmt.Fprintf(out, "depth: %d\n", result.Depth)
	return nil
}

func title(s string) string {
	if s == "" {
		return "(untitled)"
	}
	return s
}
