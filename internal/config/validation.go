package config

import (
	"fmt"
	"strings"
)

// ValidationErrors collects all rejected symbols
type ValidationErrors struct {
	InvalidSymbols []string
}

// HasErrors returns true if any validation errors exist
func (e *ValidationErrors) HasErrors() bool {
	return len(e.InvalidSymbols) > 0
}

// Error formats all validation errors into a clear message
func (e *ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("symbol validation failed:\n")

	if len(e.InvalidSymbols) > 0 {
		sb.WriteString("\nInvalid symbols:\n")
		for _, s := range e.InvalidSymbols {
			sb.WriteString(fmt.Sprintf("  - %q\n", s))
		}
		sb.WriteString(fmt.Sprintf("\nSymbols are 1-%d letters, optionally with a dot (BRK.B)\n", MaxSymbolLength))
	}

	return sb.String()
}

// NormalizeSymbols trims and upper-cases each symbol, drops blanks and
// repeats (first occurrence wins) and rejects anything that is not a ticker.
func NormalizeSymbols(raw []string) ([]string, error) {
	errs := &ValidationErrors{}
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))

	for _, r := range raw {
		s := strings.ToUpper(strings.TrimSpace(r))
		if s == "" {
			continue
		}
		if !symbolPattern.MatchString(s) {
			errs.InvalidSymbols = append(errs.InvalidSymbols, r)
			continue
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}

	if errs.HasErrors() {
		return nil, errs
	}
	return out, nil
}

// SplitSymbols splits a comma or whitespace separated list ("TSLA, aapl spy").
func SplitSymbols(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

// ParseSymbols splits and normalizes a symbol list in one step.
func ParseSymbols(s string) ([]string, error) {
	return NormalizeSymbols(SplitSymbols(s))
}
