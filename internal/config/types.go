package config

import "regexp"

// MaxSymbolLength bounds a ticker symbol, class suffix included (BRK.B).
const MaxSymbolLength = 10

var symbolPattern = regexp.MustCompile(`^[A-Z.]{1,10}$`)

// DefaultTickers is the daemon's watch list when none is configured.
var DefaultTickers = []string{
	"SPY", "QQQ", "IWM", "DIA",
	"AAPL", "MSFT", "NVDA", "TSLA",
	"AMZN", "META", "GOOGL", "AMD",
	"NFLX",
}
