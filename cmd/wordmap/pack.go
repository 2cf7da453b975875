package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wordmap/wordmap/internal/workdir"
)

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Build an archive from a work directory",
	Long: `Read the blocks listed in a work directory's manifest and encode them into
a new archive.

With --translations every string table is rebuilt with the translated
texts first, as in 'wordmap repack'. Without it the blocks are packed as
they are, including any manual edits.

Examples:
  wordmap pack --dir work/translate_words_map_zh --out translate_words_map_vn
  wordmap pack --dir work/zh --out vn --translations translation_vn.tsv`,
	Args: cobra.NoArgs,
	RunE: runPack,
}

var (
	packDir          string
	packOut          string
	packTranslations string
)

func init() {
	packCmd.Flags().StringVar(&packDir, "dir", "", "work directory written by unpack")
	packCmd.Flags().StringVarP(&packOut, "out", "o", "", "output archive")
	packCmd.Flags().StringVarP(&packTranslations, "translations", "t", "", "translation map TSV file to apply")
	_ = packCmd.MarkFlagRequired("dir")
	_ = packCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(packCmd)
}

func runPack(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, _, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	var translations map[string]string
	if packTranslations != "" {
		translations, err = client.LoadTranslations(ctx, packTranslations)
		if err != nil {
			return err
		}
	}

	report, err := client.Pack(ctx, packDir, packOut, translations, workdir.DefaultProgressFunc)
	if err != nil {
		return fmt.Errorf("packing %s: %w", packDir, err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Wrote %s\n", packOut)
	fmt.Fprintf(w, "  Blocks:   %d\n", report.Blocks)
	if translations != nil {
		fmt.Fprintf(w, "  Replaced: %d\n", report.Replaced)
		fmt.Fprintf(w, "  Unused:   %d\n", report.Unused)
	}
	fmt.Fprintf(w, "  Size:     %s\n", formatBytes(report.Bytes))
	return nil
}
