package ws

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/options-levels/internal/batch"
	"github.com/dgnsrekt/options-levels/internal/config"
)

// TickerGroup accepts group names that are valid ticker symbols and
// returns them upper-cased.
func TickerGroup(group string) (string, bool) {
	symbols, err := config.NormalizeSymbols([]string{group})
	if err != nil || len(symbols) != 1 {
		return "", false
	}
	return symbols[0], true
}

// Streamer re-analyzes every subscribed ticker on a fixed interval and
// broadcasts each outcome to the ticker's group.
type Streamer struct {
	hub      *Hub
	manager  *batch.Manager
	encoder  *Encoder
	interval time.Duration
	pending  chan string
	now      func() time.Time
	logger   *zap.Logger
}

// NewStreamer creates a Streamer and hooks it to hub so newly joined groups
// are analyzed without waiting for the next tick.
func NewStreamer(hub *Hub, manager *batch.Manager, encoder *Encoder, interval time.Duration, logger *zap.Logger) *Streamer {
	s := &Streamer{
		hub:      hub,
		manager:  manager,
		encoder:  encoder,
		interval: interval,
		pending:  make(chan string, 64),
		now:      time.Now,
		logger:   logger,
	}
	hub.OnJoin(s.enqueue)
	return s
}

func (s *Streamer) enqueue(group string) {
	select {
	case s.pending <- group:
	default:
		// next tick picks it up
	}
}

// Run starts the streaming loop. Call in a goroutine.
// Returns when context is cancelled.
func (s *Streamer) Run(ctx context.Context) {
	// Align first tick to top of second for predictable timing
	now := time.Now()
	nextSecond := now.Truncate(time.Second).Add(time.Second)
	s.logger.Debug("aligning to next second",
		zap.Time("now", now),
		zap.Duration("wait", time.Until(nextSecond)),
	)

	select {
	case <-ctx.Done():
		s.logger.Info("streamer cancelled during alignment")
		return
	case <-time.After(time.Until(nextSecond)):
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("streamer started",
		zap.Duration("interval", s.interval),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("streamer stopping")
			return

		case group := <-s.pending:
			s.refresh(ctx, []string{group})

		case <-ticker.C:
			s.refresh(ctx, s.hub.GetActiveGroups())
		}
	}
}

// refresh analyzes groups in batches no larger than the manager's limit
// and broadcasts every entry, failures included.
func (s *Streamer) refresh(ctx context.Context, groups []string) {
	if len(groups) == 0 {
		return
	}
	entries, _, err := s.manager.ExecuteAll(ctx, groups)
	if err != nil {
		s.logger.Warn("stream batch rejected", zap.Error(err))
		return
	}
	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		s.publish(entry)
	}
}

func (s *Streamer) publish(entry batch.Entry) {
	payload, err := json.Marshal(entry)
	if err != nil {
		s.logger.Debug("failed to marshal entry",
			zap.String("ticker", entry.Symbol),
			zap.Error(err),
		)
		return
	}

	env, err := dataEnvelope(entry.Symbol, payload, s.now())
	if err != nil {
		s.logger.Debug("failed to build envelope",
			zap.String("ticker", entry.Symbol),
			zap.Error(err),
		)
		return
	}

	frame, err := s.encoder.Encode(env)
	if err != nil {
		s.logger.Debug("failed to encode levels",
			zap.String("ticker", entry.Symbol),
			zap.Error(err),
		)
		return
	}

	s.hub.Broadcast(entry.Symbol, frame)

	s.logger.Debug("broadcast levels",
		zap.String("ticker", entry.Symbol),
		zap.Bool("ok", entry.OK()),
		zap.Int("textSize", len(frame.Text)),
		zap.Int("binarySize", len(frame.Binary)),
	)
}
