package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dgnsrekt/options-levels/internal/market"
)

var (
	ErrNotFound        = errors.New("snapshot not found")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// Snapshot is one recorded quote plus option chain for a ticker, as stored
// on disk by `optlevels` or captured from the upstream provider.
type Snapshot struct {
	Ticker    string               `json:"ticker,omitempty"`
	Quote     market.Quote         `json:"quote"`
	Contracts []market.RawContract `json:"contracts"`
	FetchedAt time.Time            `json:"fetchedAt,omitempty"`
}

// SnapshotKey creates the lookup key for a ticker
func SnapshotKey(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

func readSnapshot(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSnapshot, path, err)
	}
	return &snap, nil
}

// EncodeSnapshot writes snap as indented JSON.
func EncodeSnapshot(w io.Writer, snap *Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return nil
}

// WriteSnapshot stores a snapshot as indented JSON at path.
func WriteSnapshot(path string, snap *Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := EncodeSnapshot(f, snap); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
