// Package translate fills a translation map by sending batches of source
// strings to a language model.
package translate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var (
	// ErrShortReply is returned when a reply has fewer lines than inputs.
	ErrShortReply = errors.New("translate: reply has fewer lines than inputs")

	// ErrEmptyReply is returned when a reply holds no text at all.
	ErrEmptyReply = errors.New("translate: empty reply")
)

// Config is the immutable configuration of a translation run.
type Config struct {
	// Model is the model name, without the "models/" prefix.
	Model string
	// SourceLanguage and TargetLanguage are named in the prompt.
	SourceLanguage string
	TargetLanguage string
	// BatchSize is the number of strings sent per request.
	BatchSize int
	// MaxBatches caps the requests made in one run.
	MaxBatches int
	// Interval is the minimum time between requests.
	Interval time.Duration
}

// DefaultConfig returns the settings used for Traditional Chinese to
// Vietnamese with the Gemini free tier quota.
func DefaultConfig() Config {
	return Config{
		Model:          "gemini-2.5-flash",
		SourceLanguage: "Traditional Chinese",
		TargetLanguage: "Vietnamese",
		BatchSize:      20,
		MaxBatches:     17,
		Interval:       4 * time.Second,
	}
}

// Validate checks the numeric settings.
func (c Config) Validate() error {
	if c.Model == "" {
		return errors.New("translate: model is required")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("translate: batch size must be positive, got %d", c.BatchSize)
	}
	if c.MaxBatches <= 0 {
		return fmt.Errorf("translate: max batches must be positive, got %d", c.MaxBatches)
	}
	if c.Interval < 0 {
		return fmt.Errorf("translate: interval must not be negative, got %s", c.Interval)
	}
	return nil
}

// Translator translates a batch of strings. The reply holds one string per
// input, in input order.
type Translator interface {
	TranslateBatch(ctx context.Context, texts []string) ([]string, error)
}

// Backoff decides how often a failed batch is retried and how long to wait
// before each retry.
type Backoff struct {
	// Attempts is the total number of tries per batch, at least 1.
	Attempts int
	// Delay returns the wait before retry n (1-based).
	Delay func(n int) time.Duration
}

// ConstantBackoff waits d between tries.
func ConstantBackoff(attempts int, d time.Duration) Backoff {
	return Backoff{
		Attempts: attempts,
		Delay:    func(int) time.Duration { return d },
	}
}

// ExponentialBackoff doubles the wait after each try, starting at base and
// never exceeding max.
func ExponentialBackoff(attempts int, base, max time.Duration) Backoff {
	return Backoff{
		Attempts: attempts,
		Delay: func(n int) time.Duration {
			d := float64(base) * math.Pow(2, float64(n-1))
			if d > float64(max) {
				return max
			}
			return time.Duration(d)
		},
	}
}

// buildPrompt asks for one translated line per input line. Newlines inside
// a text are replaced with lineBreak so line counts stay aligned.
func buildPrompt(cfg Config, texts []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Translate the following game strings from %s to %s. ", cfg.SourceLanguage, cfg.TargetLanguage)
	b.WriteString("Keep the original format, tags (like #Y, #E, [xxxx]), " + lineBreak + " markers, and variables. ")
	b.WriteString("Return only the translated strings, one per line. Do not add any explanations.\n\n")
	for i, t := range texts {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(escapeLine(t))
	}
	return b.String()
}

// parseReply splits a reply into exactly n lines.
func parseReply(reply string, n int) ([]string, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, ErrEmptyReply
	}

	lines := strings.Split(reply, "\n")
	if len(lines) < n {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrShortReply, len(lines), n)
	}

	out := make([]string, n)
	for i := range out {
		out[i] = unescapeLine(strings.TrimSuffix(lines[i], "\r"))
	}
	return out, nil
}

// lineBreak stands in for newlines inside a text while it is in the prompt.
const lineBreak = "<br>"

var (
	lineEscaper   = strings.NewReplacer("\r\n", lineBreak, "\n", lineBreak)
	lineUnescaper = strings.NewReplacer(lineBreak, "\n")
)

func escapeLine(s string) string   { return lineEscaper.Replace(s) }
func unescapeLine(s string) string { return lineUnescaper.Replace(s) }
