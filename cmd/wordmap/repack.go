package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var repackCmd = &cobra.Command{
	Use:   "repack ARCHIVE",
	Short: "Write a new archive with translated strings",
	Long: `Decode an archive, replace the text of every entry whose id is in the
translation map and write the re-encoded archive.

Entries without a translation keep their original text. The output is
written only if the whole archive repacks cleanly; an archive with a
truncated entry table is refused.

Examples:
  wordmap repack translate_words_map_zh
  wordmap repack translate_words_map_zh --translations vi.tsv --out translate_words_map_vi`,
	Args: cobra.ExactArgs(1),
	RunE: runRepack,
}

var (
	repackTranslations string
	repackOut          string
)

func init() {
	repackCmd.Flags().StringVarP(&repackTranslations, "translations", "t", "translation_vn.tsv", "translation map TSV file")
	repackCmd.Flags().StringVarP(&repackOut, "out", "o", "translate_words_map_vn", "output archive")
	rootCmd.AddCommand(repackCmd)
}

func runRepack(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, _, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	translations, err := client.LoadTranslations(ctx, repackTranslations)
	if err != nil {
		return err
	}

	report, err := client.RepackArchive(ctx, args[0], repackOut, translations)
	if err != nil {
		return fmt.Errorf("repacking %s: %w", args[0], err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Wrote %s\n", repackOut)
	fmt.Fprintf(w, "  Blocks:   %d\n", report.Blocks)
	fmt.Fprintf(w, "  Replaced: %d\n", report.Replaced)
	fmt.Fprintf(w, "  Unused:   %d\n", report.Unused)
	fmt.Fprintf(w, "  Size:     %s\n", formatBytes(report.Bytes))
	return nil
}
