package main

import (
	"fmt"
	"path"

	"github.com/spf13/cobra"

	"github.com/wordmap/wordmap/internal/workdir"
)

var unpackCmd = &cobra.Command{
	Use:   "unpack ARCHIVE",
	Short: "Dump the decompressed blocks of an archive to a work directory",
	Long: `Decode an archive and write each block to <dir>/<archive>_<i>.dat along
with a manifest.json recording block types, sizes and checksums.

Blocks can be edited in place and packed back with 'wordmap pack'.

Examples:
  wordmap unpack translate_words_map_zh
  wordmap unpack translate_words_map_zh --dir work/zh`,
	Args: cobra.ExactArgs(1),
	RunE: runUnpack,
}

var unpackDir string

func init() {
	unpackCmd.Flags().StringVar(&unpackDir, "dir", "", "work directory (default work/<archive>)")
	rootCmd.AddCommand(unpackCmd)
}

func runUnpack(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	dir := unpackDir
	if dir == "" {
		dir = path.Join("work", path.Base(args[0]))
	}

	client, _, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	m, err := client.Unpack(ctx, args[0], dir, workdir.DefaultProgressFunc)
	if err != nil {
		return fmt.Errorf("unpacking %s: %w", args[0], err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Unpacked %d blocks to %s\n", len(m.Blocks), dir)
	return nil
}
