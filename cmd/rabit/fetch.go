package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	fetchEntryID string
	fetchOutput  string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <uri>",
	Short: "Fetch content for a URI or a burrow entry",
	Long: `Fetch raw content across any supported transport. With --entry, the URI
names a burrow location; the entry is resolved against the burrow's base
and its declared sha256 digest is verified when present.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchEntryID, "entry", "", "Fetch this entry of the burrow at <uri>")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "Write content to a file instead of stdout")
}

func runFetch(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	var data []byte
	if fetchEntryID != "" {
		burrow, err := client.LoadBurrow(ctx, args[0])
		if err != nil {
			return err
		}
		found := false
		for _, entry := range burrow.Entries {
			if entry.ID == fetchEntryID {
				data, err = client.FetchEntry(ctx, burrow, entry)
				if err != nil {
					return err
				}
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("no entry %q in burrow at %s", fetchEntryID, args[0])
		}
	} else {
		data, err = client.Fetch(ctx, args[0])
		if err != nil {
			return err
		}
	}

	if fetchOutput != "" {
		return os.WriteFile(fetchOutput, data, 0o644)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
