package notify

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgnsrekt/options-levels/internal/batch"
)

const maxListedErrors = 3

// FormatSuccessMessage creates a success notification body.
func FormatSuccessMessage(summary *batch.Summary, duration time.Duration) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Tickers: %d\n", summary.Total)
	fmt.Fprintf(&sb, "Analyzed: %d\n", summary.Success)
	if summary.Failed > 0 {
		fmt.Fprintf(&sb, "Failed: %d (%s)\n", summary.Failed, formatKinds(summary))
	}
	fmt.Fprintf(&sb, "Duration: %s", duration.Round(time.Second))

	return sb.String()
}

// FormatFailureMessage creates a failure notification body. summary may be
// nil when the run stopped before any ticker was analyzed.
func FormatFailureMessage(summary *batch.Summary, duration time.Duration, err error) string {
	var sb strings.Builder

	if summary != nil {
		fmt.Fprintf(&sb, "Tickers: %d\n", summary.Total)
		fmt.Fprintf(&sb, "Analyzed: %d\n", summary.Success)
		fmt.Fprintf(&sb, "Failed: %d\n", summary.Failed)
	}
	fmt.Fprintf(&sb, "Duration: %s", duration.Round(time.Second))

	if err != nil {
		fmt.Fprintf(&sb, "\n\nError: %v", err)
	}

	if summary != nil && len(summary.Errors) > 0 {
		sb.WriteString("\n\nErrors:\n")
		limit := min(len(summary.Errors), maxListedErrors)
		for _, e := range summary.Errors[:limit] {
			fmt.Fprintf(&sb, "- %s\n", e)
		}
		if len(summary.Errors) > maxListedErrors {
			fmt.Fprintf(&sb, "... and %d more errors", len(summary.Errors)-maxListedErrors)
		}
	}

	return sb.String()
}

// formatKinds renders failure counts per kind, e.g. "no_quote_data=2".
func formatKinds(summary *batch.Summary) string {
	parts := make([]string, 0, len(summary.ByKind))
	for kind, n := range summary.ByKind {
		parts = append(parts, fmt.Sprintf("%s=%d", kind, n))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
