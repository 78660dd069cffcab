package market

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidSymbol = errors.New("invalid option symbol")

// ExpirationLayout is the canonical expiration format.
const ExpirationLayout = "2006-01-02"

var expirationLayouts = []string{
	ExpirationLayout,
	"Jan 2, 2006",
	"Jan 02, 2006",
	"January 2, 2006",
	"01/02/2006",
	"060102",
}

// ParseNum converts an upstream display number ("$1,234.50", "12%", "--")
// to a float. Placeholders, unparsable text and non-finite values ("NaN",
// "Inf") yield 0.
func ParseNum(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "", "--", "N/A":
		return 0
	}
	s = strings.NewReplacer(",", "", "$", "", "%", "").Replace(s)
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}

// NormalizeExpiration rewrites a recognised date to YYYY-MM-DD.
// Unrecognised text is returned trimmed but otherwise unchanged.
func NormalizeExpiration(s string) string {
	s = strings.TrimSpace(s)
	if t, ok := ParseExpiration(s); ok {
		return t.Format(ExpirationLayout)
	}
	return s
}

// ParseExpiration parses any of the supported expiration layouts.
func ParseExpiration(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range expirationLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// OCCSymbol is a decoded OCC option symbol.
type OCCSymbol struct {
	Root       string
	Expiration time.Time
	Kind       OptionKind
	Strike     float64
}

// ParseOCCSymbol decodes <root><YYMMDD><C|P><strike*1000 as 8 digits>.
// A leading "O:" (Polygon style) and root padding spaces are accepted.
func ParseOCCSymbol(symbol string) (*OCCSymbol, error) {
	s := strings.TrimPrefix(strings.TrimSpace(symbol), "O:")
	s = strings.ReplaceAll(s, " ", "")

	// 6 date + 1 kind + 8 strike
	if len(s) < 16 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	tail := s[len(s)-15:]
	root := s[:len(s)-15]

	exp, err := time.Parse("060102", tail[:6])
	if err != nil {
		return nil, fmt.Errorf("%w: %q: bad date", ErrInvalidSymbol, symbol)
	}

	kind, ok := ParseOptionKind(tail[6:7])
	if !ok {
		return nil, fmt.Errorf("%w: %q: bad side", ErrInvalidSymbol, symbol)
	}

	milli, err := strconv.ParseUint(tail[7:], 10, 64)
	if err != nil || milli == 0 {
		return nil, fmt.Errorf("%w: %q: bad strike", ErrInvalidSymbol, symbol)
	}

	return &OCCSymbol{
		Root:       root,
		Expiration: exp,
		Kind:       kind,
		Strike:     float64(milli) / 1000,
	}, nil
}

// FormatOCCSymbol builds the OCC symbol for the given parts.
func FormatOCCSymbol(root string, expiration time.Time, kind OptionKind, strike float64) string {
	side := "C"
	if kind == Put {
		side = "P"
	}
	milli := int64(strike*1000 + 0.5)
	return fmt.Sprintf("%s%s%s%08d", strings.ToUpper(root), expiration.Format("060102"), side, milli)
}
