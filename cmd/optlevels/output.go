package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"

	"github.com/dgnsrekt/options-levels/internal/analysis"
	"github.com/dgnsrekt/options-levels/internal/batch"
)

func newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Analyzing"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]█[reset]",
			SaucerHead:    "[green]█[reset]",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// outputTable prints one summary row per ticker, then the failures.
func outputTable(entries []batch.Entry) {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{
			"Symbol", "Price", "Chg %", "Expiry", "DTE", "Max Pain",
			"GEX Res", "GEX Sup", "GEX", "Call Wall", "Put Wall", "POC", "Range", "P/C",
		}),
	)

	var failed []batch.Entry
	for _, e := range entries {
		if !e.OK() {
			failed = append(failed, e)
			continue
		}
		r := e.Result
		lv := r.Levels
		table.Append([]string{
			r.Symbol,
			price(r.CurrentPrice),
			fmt.Sprintf("%+.2f%%", r.PriceChangePercent),
			r.Expiration,
			fmt.Sprintf("%d", r.DaysToExpiration),
			price(lv.MaxPain),
			level(lv.GEX.Resistance),
			level(lv.GEX.Support),
			sentiment(lv.GEX),
			level(lv.Walls.CallWallByOI),
			level(lv.Walls.PutWallByOI),
			level(lv.VolumeProfile.PointOfControl),
			fmt.Sprintf("%s-%s", price(lv.ExpectedRange.Low), price(lv.ExpectedRange.High)),
			fmt.Sprintf("%.2f", r.DataQuality.PutCallRatio),
		})
	}

	table.Render()

	if len(failed) > 0 {
		fmt.Println("\n--- Failed ---")
		for _, e := range failed {
			fmt.Printf("%-6s %-22s %v\n", e.Symbol, e.Kind(), e.Err)
		}
	}

	for _, e := range entries {
		if e.OK() && e.Result.DataQuality.MalformedContracts > 0 {
			dq := e.Result.DataQuality
			fmt.Printf("\nnote: %s skipped %d malformed of %d contracts\n", e.Symbol, dq.MalformedContracts, dq.ContractsReceived)
		}
	}
}

func price(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func level(v *float64) string {
	if v == nil {
		return "-"
	}
	return price(*v)
}

func sentiment(g analysis.GEX) string {
	return fmt.Sprintf("%s %s", strings.ToLower(g.NetSentiment), compact(g.TotalNetGEX))
}

// compact renders large exposures as 1.2M / -3.4B.
func compact(v float64) string {
	abs := v
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%.1fB", v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}
