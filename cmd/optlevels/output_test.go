package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestCompact(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{950, "950"},
		{1480000, "1.5M"},
		{-2500, "-2.5K"},
		{-3.2e9, "-3.2B"},
	}
	for _, tt := range tests {
		if got := compact(tt.in); got != tt.want {
			t.Errorf("compact(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestLevel(t *testing.T) {
	v := 105.0
	if level(&v) != "105.00" || level(nil) != "-" {
		t.Errorf("unexpected level formatting")
	}
}

func TestConvertReport(t *testing.T) {
	logger = zap.NewNop()

	dir := t.TempDir()
	path := filepath.Join(dir, "levels.json")
	report := `{"date":"2024-01-12","results":[
  {"symbol":"SPY","currentPrice":470.1},
  {"symbol":"BAD","error":"no quote data for BAD","kind":"no_quote_data"}
]}`
	if err := os.WriteFile(path, []byte(report), 0644); err != nil {
		t.Fatal(err)
	}

	if err := convertReport(path, false); err != nil {
		t.Fatalf("convertReport failed: %v", err)
	}

	out, err := os.ReadFile(filepath.Join(dir, "levels.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) != 2 || lines[0] != `{"symbol":"SPY","currentPrice":470.1}` {
		t.Errorf("unexpected JSONL output %q", out)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("original should be removed without --keep")
	}

	// second run is a no-op
	if err := convertReport(path, false); err != nil {
		t.Errorf("expected skip when JSONL exists, got %v", err)
	}
}
