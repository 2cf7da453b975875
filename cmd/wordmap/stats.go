package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wordmap/wordmap/internal/container"
)

var statsCmd = &cobra.Command{
	Use:   "stats ARCHIVE",
	Short: "Show statistics about an archive",
	Long: `Display statistics about an archive including:
- Container version and block count
- Compressed and decompressed size of each block (with --verbose)
- Number of string tables and entries
- Truncated entry tables and duplicate ids`,
	Args: cobra.ExactArgs(1),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, _, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	data, err := client.Store().Read(ctx, args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	layout, err := container.Inspect(data)
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", args[0], err)
	}

	ex, err := client.Extract(ctx, data)
	if err != nil {
		return fmt.Errorf("extracting %s: %w", args[0], err)
	}

	var decompressed int
	for _, b := range layout.Blocks {
		decompressed += int(b.Header.DecompressedSize)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Archive:        %s\n", args[0])
	fmt.Fprintf(w, "Version:        %d\n", layout.Header.Version)
	fmt.Fprintf(w, "Blocks:         %d\n", len(layout.Blocks))
	fmt.Fprintf(w, "Size:           %s\n", formatBytes(len(data)))
	fmt.Fprintf(w, "Decompressed:   %s\n", formatBytes(decompressed))
	fmt.Fprintf(w, "String tables:  %d\n", len(ex.Tables))
	fmt.Fprintf(w, "Entries:        %d\n", ex.Entries())
	fmt.Fprintf(w, "Unique ids:     %d\n", len(ex.Strings()))
	fmt.Fprintf(w, "Diagnostics:    %d\n", len(ex.Diagnostics))

	if verbose {
		fmt.Fprintln(w)
		for i, b := range layout.Blocks {
			fmt.Fprintf(w, "  block %d: type %d, offset %d, %s -> %s\n",
				i, b.Header.Type, b.Offset,
				formatBytes(int(b.Header.CompressedSize)),
				formatBytes(int(b.Header.DecompressedSize)))
		}
	}
	printDiagnostics(cmd.ErrOrStderr(), ex.Diagnostics)

	return nil
}
