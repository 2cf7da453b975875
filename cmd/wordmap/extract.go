package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract ARCHIVE",
	Short: "Extract every string of an archive to a TSV file",
	Long: `Decode an archive, parse each string table and write all entries to a
tab-separated file with columns ID and OriginalText.

An id found in more than one block keeps its first text. Truncated entry
tables and duplicate ids are printed as warnings.

Examples:
  wordmap extract translate_words_map_zh
  wordmap extract translate_words_map_zh --out zh.tsv`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

var extractOut string

func init() {
	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "extracted_text.tsv", "output TSV file")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, _, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	ex, err := client.ExtractArchive(ctx, args[0])
	if err != nil {
		return fmt.Errorf("extracting %s: %w", args[0], err)
	}
	printDiagnostics(cmd.ErrOrStderr(), ex.Diagnostics)

	rows := ex.Rows()
	if err := client.SaveTranslations(ctx, extractOut, rows); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d strings from %d tables to %s\n", len(rows), len(ex.Tables), extractOut)
	return nil
}
