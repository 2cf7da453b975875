package workdir

import (
	"fmt"
	"time"
)

// Progress reports how far an unpack or pack has got.
type Progress struct {
	Phase       string
	Blocks      int
	BlocksTotal int
	Bytes       int64
	StartTime   time.Time
	Error       error
}

// ProgressFunc is called after every block and once at the end.
type ProgressFunc func(Progress)

// FormatBytes formats bytes as human-readable string.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatDuration formats duration as human-readable string.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// DefaultProgressFunc prints progress to stdout.
func DefaultProgressFunc(p Progress) {
	switch p.Phase {
	case PhaseUnpack:
		fmt.Printf("\r[Unpack] %d / %d blocks, %s", p.Blocks, p.BlocksTotal, FormatBytes(p.Bytes))
	case PhasePack:
		fmt.Printf("\r[Pack] %d / %d blocks, %s", p.Blocks, p.BlocksTotal, FormatBytes(p.Bytes))
	case PhaseDone:
		fmt.Printf("\n[Done] %d blocks, %s (%s)\n",
			p.Blocks, FormatBytes(p.Bytes), FormatDuration(time.Since(p.StartTime)))
	case PhaseError:
		fmt.Printf("\n[Error] %v\n", p.Error)
	}
}

// Progress phases.
const (
	PhaseUnpack = "unpack"
	PhasePack   = "pack"
	PhaseDone   = "done"
	PhaseError  = "error"
)
