package ws

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// NegotiateResponse tells a client where and how to connect.
type NegotiateResponse struct {
	WebsocketURL   string   `json:"websocket_url"`
	Protocols      []string `json:"protocols"`
	StreamInterval string   `json:"stream_interval"`
	MaxBatchSize   int      `json:"max_batch_size"`
}

// NegotiateHandler handles the /ws/negotiate endpoint.
type NegotiateHandler struct {
	interval time.Duration
	maxBatch int
	logger   *zap.Logger
}

// NewNegotiateHandler creates a new NegotiateHandler.
func NewNegotiateHandler(interval time.Duration, maxBatch int, logger *zap.Logger) *NegotiateHandler {
	return &NegotiateHandler{interval: interval, maxBatch: maxBatch, logger: logger}
}

// HandleNegotiate handles GET /ws/negotiate.
func (h *NegotiateHandler) HandleNegotiate(w http.ResponseWriter, r *http.Request) {
	scheme := "ws"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "wss"
	}

	response := NegotiateResponse{
		WebsocketURL:   fmt.Sprintf("%s://%s/ws", scheme, r.Host),
		Protocols:      []string{ProtocolJSON, ProtocolProtobuf},
		StreamInterval: h.interval.String(),
		MaxBatchSize:   h.maxBatch,
	}

	h.logger.Debug("negotiate successful", zap.String("url", response.WebsocketURL))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode negotiate response", zap.Error(err))
	}
}
