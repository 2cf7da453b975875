package wordmap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
)

// ErrRoundTrip indicates a repacked archive did not extract to the same
// content as its source.
var ErrRoundTrip = errors.New("wordmap: round trip mismatch")

// VerifyReport summarizes a successful Verify.
type VerifyReport struct {
	Blocks      int
	Entries     int
	Bytes       int
	Diagnostics []Diagnostic
}

// Verify extracts data, repacks it without translations and checks the
// result extracts to the same sentinel, prefixes, ids and texts.
func (c *Client) Verify(ctx context.Context, data []byte) (*VerifyReport, error) {
	ex, err := c.Extract(ctx, data)
	if err != nil {
		return nil, err
	}

	out, report, err := c.Repack(ctx, ex, nil)
	if err != nil {
		return nil, err
	}

	again, err := c.Extract(ctx, out)
	if err != nil {
		return nil, fmt.Errorf("re-extracting: %w", err)
	}
	if err := compareExtractions(ex, again); err != nil {
		return nil, err
	}

	return &VerifyReport{
		Blocks:      report.Blocks,
		Entries:     ex.Entries(),
		Bytes:       report.Bytes,
		Diagnostics: ex.Diagnostics,
	}, nil
}

func compareExtractions(want, got *Extraction) error {
	if !bytes.Equal(want.Sentinel, got.Sentinel) {
		return fmt.Errorf("%w: sentinel block differs", ErrRoundTrip)
	}
	if len(want.Tables) != len(got.Tables) {
		return fmt.Errorf("%w: %d tables, want %d", ErrRoundTrip, len(got.Tables), len(want.Tables))
	}
	for i, wt := range want.Tables {
		gt := got.Tables[i]
		if !bytes.Equal(wt.Prefix, gt.Prefix) {
			return fmt.Errorf("%w: block %d prefix differs", ErrRoundTrip, i+1)
		}
		if len(wt.Entries) != len(gt.Entries) {
			return fmt.Errorf("%w: block %d has %d entries, want %d", ErrRoundTrip, i+1, len(gt.Entries), len(wt.Entries))
		}
		for j, we := range wt.Entries {
			ge := gt.Entries[j]
			if we.ID != ge.ID || we.Text != ge.Text {
				return fmt.Errorf("%w: block %d entry %d (%s)", ErrRoundTrip, i+1, j, we.Key())
			}
		}
	}
	return nil
}
