package main

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags.
	dataDir     string
	remote      string
	verbose     bool
	metricsFile string
	cacheSize   int
	workers     int
)

var rootCmd = &cobra.Command{
	Use:   "wordmap",
	Short: "Extract, translate and repack word-map archives",
	Long: `Wordmap is a CLI tool for translating the text of a game's word-map
archive.

The archive is a container of zstd-compressed blocks. Every block after the
first holds a string table of id/text entries. Wordmap extracts those
entries to a tab-separated file, fills a translation map through a language
model, and writes a new archive with the translated texts.

Archive and translation file names are relative to --data-dir, or to
--remote when it is set.

Examples:
  # Extract all strings
  wordmap extract translate_words_map_zh

  # Translate pending strings with Gemini
  GEMINI_API_KEY=... wordmap translate

  # Build the translated archive
  wordmap repack translate_words_map_zh --out translate_words_map_vn

  # Work with archives in a bucket
  wordmap ls --remote s3://my-bucket/wordmap`,
	SilenceUsage:       true,
	PersistentPostRunE: runWriteMetrics,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", ".", "directory containing archives and translation files")
	rootCmd.PersistentFlags().StringVar(&remote, "remote", "", "remote store location (s3://bucket/prefix or gs://bucket/prefix)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")
	rootCmd.PersistentFlags().IntVar(&cacheSize, "cache-size", 16, "number of store objects to cache in memory (0 disables)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 4, "number of blocks compressed or decompressed in parallel")
}
