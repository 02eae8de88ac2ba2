package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rabit-sh/rabit/pkg/mapgen"
)

var (
	mapOutput        string
	mapTitle         string
	mapBaseURI       string
	mapIncludeHidden bool
	mapDigest        bool
	mapMaxFileSize   int64
	mapStdout        bool
)

var mapCmd = &cobra.Command{
	Use:   "map <directory>",
	Short: "Generate a burrow manifest from a directory",
	Long: `Walk a directory and emit a burrow manifest listing its contents.
Subdirectories become dir entries, so the output stays traversable by the
discovery convention. Hidden files and .gitignore matches are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runMap,
}

func init() {
	mapCmd.Flags().StringVarP(&mapOutput, "output", "o", "", "Output path (default <dir>/.burrow.json)")
	mapCmd.Flags().StringVar(&mapTitle, "title", "", "Manifest title (default directory name)")
	mapCmd.Flags().StringVar(&mapBaseURI, "base-uri", "", "Explicit baseUri for the manifest")
	mapCmd.Flags().BoolVar(&mapIncludeHidden, "include-hidden", false, "Include hidden files and directories")
	mapCmd.Flags().BoolVar(&mapDigest, "digest", false, "Compute sha256 digests for file entries")
	mapCmd.Flags().Int64Var(&mapMaxFileSize, "max-file-size", 0, "Skip files larger than this many bytes")
	mapCmd.Flags().BoolVar(&mapStdout, "stdout", false, "Print the manifest instead of writing it")
}

func runMap(cmd *cobra.Command, args []string) error {
	burrow, err := mapgen.Generate(args[0], mapgen.Options{
		Title:         mapTitle,
		BaseURI:       mapBaseURI,
		IncludeHidden: mapIncludeHidden,
		Digest:        mapDigest,
		MaxFileSize:   mapMaxFileSize,
	})
	if err != nil {
		return err
	}

	if mapStdout {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(burrow)
	}

	output := mapOutput
	if output == "" {
		output = filepath.Join(args[0], ".burrow.json")
	}
	if err := mapgen.Write(burrow, output); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d entries)\n", output, len(burrow.Entries))
	return nil
}
