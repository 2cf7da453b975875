package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wordmap/wordmap"
	"github.com/wordmap/wordmap/internal/translate"
	"github.com/wordmap/wordmap/internal/tsv"
)

// apiKeyEnv names the environment variable holding the Gemini API key.
const apiKeyEnv = "GEMINI_API_KEY"

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate pending strings with Gemini",
	Long: `Read extracted strings, send the ones without a translation to Gemini in
batches and merge the replies into the translation map.

Each run sends at most --batch-size * --max-batches strings, one request
per --interval, so it can be repeated until every string is translated.
A batch that keeps failing is skipped and retried on the next run.

The API key is read from the GEMINI_API_KEY environment variable.

Examples:
  wordmap translate
  wordmap translate --in zh.tsv --out vi.tsv --max-batches 50`,
	Args: cobra.NoArgs,
	RunE: runTranslate,
}

var (
	translateIn    string
	translateOut   string
	translateTries int
)

var translateCfg = translate.DefaultConfig()

func init() {
	f := translateCmd.Flags()
	f.StringVarP(&translateIn, "in", "i", "extracted_text.tsv", "extracted strings TSV file")
	f.StringVarP(&translateOut, "out", "o", "translation_vn.tsv", "translation map TSV file, updated in place")
	f.StringVar(&translateCfg.Model, "model", translateCfg.Model, "Gemini model name")
	f.StringVar(&translateCfg.SourceLanguage, "source-lang", translateCfg.SourceLanguage, "source language named in the prompt")
	f.StringVar(&translateCfg.TargetLanguage, "target-lang", translateCfg.TargetLanguage, "target language named in the prompt")
	f.IntVar(&translateCfg.BatchSize, "batch-size", translateCfg.BatchSize, "strings per request")
	f.IntVar(&translateCfg.MaxBatches, "max-batches", translateCfg.MaxBatches, "requests per run")
	f.DurationVar(&translateCfg.Interval, "interval", translateCfg.Interval, "minimum time between requests")
	f.IntVar(&translateTries, "attempts", 3, "tries per batch before it is skipped")
	rootCmd.AddCommand(translateCmd)
}

func runTranslate(cmd *cobra.Command, args []string) error {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return fmt.Errorf("%s is not set", apiKeyEnv)
	}

	ctx := cmd.Context()
	client, log, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	data, err := client.Store().Read(ctx, translateIn)
	if err != nil {
		return fmt.Errorf("reading %s: %w", translateIn, err)
	}
	source, err := tsv.Read(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", translateIn, err)
	}

	existing, err := client.LoadTranslations(ctx, translateOut)
	if errors.Is(err, wordmap.ErrMissingTranslationFile) {
		existing = map[string]string{}
	} else if err != nil {
		return err
	}

	gemini, err := translate.NewGemini(ctx, apiKey, translateCfg)
	if err != nil {
		return err
	}
	batcher, err := translate.NewBatcher(gemini, translateCfg,
		translate.WithBackoff(translate.ExponentialBackoff(translateTries, translateCfg.Interval, 60*translateCfg.Interval)),
		translate.WithLogger(log.Named("translate")),
	)
	if err != nil {
		return err
	}

	res, runErr := batcher.Run(ctx, source, existing)
	if res == nil {
		return runErr
	}

	// Keep partial progress when interrupted.
	saveCtx := context.WithoutCancel(ctx)
	if err := client.SaveTranslations(saveCtx, translateOut, res.Rows(source)); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Wrote %s\n", translateOut)
	fmt.Fprintf(w, "  Translated: %d\n", res.Succeeded)
	fmt.Fprintf(w, "  Skipped:    %d\n", res.Failed)
	fmt.Fprintf(w, "  Remaining:  %d\n", res.Remaining)
	if res.Remaining > 0 && runErr == nil {
		log.Info("run again to translate the remaining strings", zap.Int("remaining", res.Remaining))
	}
	return runErr
}
