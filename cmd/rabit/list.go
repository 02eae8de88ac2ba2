package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list <uri>",
	Short: "List the entries of a burrow",
	Long: `Discover the burrow at a location and print its entries. Warrens are
listed as their burrow and warren references instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Emit JSON output")
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	result, err := client.Discover(ctx, args[0])
	if err != nil {
		return err
	}
	if !result.Found() {
		return fmt.Errorf("no burrow or warren found at %s", args[0])
	}

	out := cmd.OutOrStdout()
	if result.Burrow != nil {
		if listJSON {
			return json.NewEncoder(out).Encode(result.Burrow)
		}
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"ID", "Kind", "URI", "Size", "Priority", "Tags"})
		table.SetBorder(false)
		for _, entry := range result.Burrow.Entries {
			size := ""
			if entry.SizeBytes > 0 {
				size = strconv.FormatInt(entry.SizeBytes, 10)
			}
			prio := ""
			if entry.Priority != 0 {
				prio = strconv.Itoa(entry.Priority)
			}
			table.Append([]string{
				entry.ID, string(entry.Kind), entry.URI, size, prio, strings.Join(entry.Tags, ","),
			})
		}
		table.Render()
		return nil
	}

	if listJSON {
		return json.NewEncoder(out).Encode(result.Warren)
	}
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Kind", "URI", "Title"})
	table.SetBorder(false)
	for _, ref := range result.Warren.Burrows {
		table.Append([]string{"burrow", ref.URI, ref.Title})
	}
	for _, ref := range result.Warren.Warrens {
		table.Append([]string{"warren", ref.URI, ref.Title})
	}
	table.Render()
	return nil
}
