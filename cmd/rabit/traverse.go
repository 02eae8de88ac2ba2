package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rabit-sh/rabit"
)

var (
	traverseStrategy   string
	traverseMaxDepth   int
	traverseMaxEntries int
	traverseFetch      bool
	traverseJSON       bool
)

var traverseCmd = &cobra.Command{
	Use:   "traverse <uri>",
	Short: "Walk a burrow's entry graph",
	Long: `Discover the manifest at a location and walk its entry graph. Nested
burrows and map entries are expanded up to the depth bound; cycles are
detected by entry identity and skipped. With --fetch, file content is
retrieved and verified against declared digests.`,
	Args: cobra.ExactArgs(1),
	RunE: runTraverse,
}

func init() {
	traverseCmd.Flags().StringVar(&traverseStrategy, "strategy", "", "Traversal strategy: bfs, dfs, priority (default bfs)")
	traverseCmd.Flags().IntVar(&traverseMaxDepth, "max-depth", 0, "Maximum traversal depth (default and ceiling 100)")
	traverseCmd.Flags().IntVar(&traverseMaxEntries, "max-entries", -1, "Maximum entries to visit (default 100000)")
	traverseCmd.Flags().BoolVar(&traverseFetch, "fetch", false, "Fetch file content and verify digests")
	traverseCmd.Flags().BoolVar(&traverseJSON, "json", false, "Emit one JSON object per event")
}

func runTraverse(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	fileCfg := loadConfig()
	opts := rabit.DefaultTraverseOptions()
	if s := firstNonEmpty(traverseStrategy, fileCfg.Strategy); s != "" {
		switch s {
		case "bfs":
			opts.Strategy = rabit.BreadthFirst
		case "dfs":
			opts.Strategy = rabit.DepthFirst
		case "priority":
			opts.Strategy = rabit.PriorityFirst
		default:
			return fmt.Errorf("unknown strategy %q (want bfs, dfs, or priority)", s)
		}
	}
	if d := firstPositive(traverseMaxDepth, fileCfg.MaxDepth); d > 0 {
		opts.MaxDepth = d
	}
	if traverseMaxEntries >= 0 {
		opts.MaxEntries = traverseMaxEntries
	} else if fileCfg.MaxEntries > 0 {
		opts.MaxEntries = fileCfg.MaxEntries
	}
	opts.FetchContent = traverseFetch

	result, err := client.Discover(ctx, args[0])
	if err != nil {
		return err
	}
	if !result.Found() {
		return fmt.Errorf("no burrow or warren found at %s", args[0])
	}

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	entryStyle := color.New(color.FgHiWhite)
	skipStyle := color.New(color.FgYellow)
	errStyle := color.New(color.FgHiRed)

	visit := func(ev rabit.Event) error {
		if traverseJSON {
			return enc.Encode(map[string]any{
				"type":  ev.Type,
				"id":    ev.Entry.ID,
				"kind":  ev.Entry.Kind,
				"uri":   ev.URI,
				"depth": ev.Depth,
				"error": errString(ev.Err),
			})
		}
		indent := strings.Repeat("  ", ev.Depth)
		switch ev.Type {
		case "entry":
			entryStyle.Fprintf(out, "%s%s", indent, ev.Entry.ID) //nolint:errcheck
			fmt.Fprintf(out, "  [%s]  %s\n", ev.Entry.Kind, ev.URI)
		case "cycle-skip":
			skipStyle.Fprintf(out, "%s%s  (cycle, skipped)\n", indent, ev.Entry.ID) //nolint:errcheck
		case "depth-limit":
			skipStyle.Fprintf(out, "%s%s  (depth limit)\n", indent, ev.Entry.ID) //nolint:errcheck
		case "error":
			errStyle.Fprintf(out, "%s%s  error: %v\n", indent, ev.Entry.ID, ev.Err) //nolint:errcheck
		}
		return nil
	}

	if result.Burrow != nil {
		return client.Traverse(ctx, result.Burrow, opts, visit)
	}
	return client.TraverseWarren(ctx, result.Warren, opts, visit)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
