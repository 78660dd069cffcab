package ws

import (
	"encoding/json"
	"fmt"
	"time"
)

// Subprotocols offered on /ws. JSON clients get text frames, protobuf
// clients get zstd-compressed protobuf Struct frames.
const (
	ProtocolJSON     = "json.levels.v1"
	ProtocolProtobuf = "protobuf.levels.v1"
)

// Upstream message types for internal routing
type (
	joinGroupRequest struct {
		group string
		ackID *uint64
	}
	leaveGroupRequest struct {
		group string
		ackID *uint64
	}
	pingRequest struct{}
)

type upstreamMessage struct {
	Type  string  `json:"type"`
	Group string  `json:"group"`
	AckID *uint64 `json:"ackId"`
}

// parseUpstreamMessage parses a JSON upstream message. Protobuf clients send
// the same JSON inside binary frames.
func parseUpstreamMessage(data []byte) (any, error) {
	var msg upstreamMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal upstream message: %w", err)
	}

	switch msg.Type {
	case "joinGroup":
		return &joinGroupRequest{group: msg.Group, ackID: msg.AckID}, nil
	case "leaveGroup":
		return &leaveGroupRequest{group: msg.Group, ackID: msg.AckID}, nil
	case "ping":
		return &pingRequest{}, nil
	default:
		return nil, fmt.Errorf("unknown message type: %q", msg.Type)
	}
}

// Downstream envelopes. Both protocols carry the same fields; only the
// framing differs.

func connectedEnvelope(connectionID string) map[string]any {
	return map[string]any{
		"type":         "system",
		"event":        "connected",
		"connectionId": connectionID,
	}
}

func ackEnvelope(ackID uint64, success bool, reason string) map[string]any {
	msg := map[string]any{
		"type":    "ack",
		"ackId":   ackID,
		"success": success,
	}
	if reason != "" {
		msg["error"] = reason
	}
	return msg
}

func pongEnvelope() map[string]any {
	return map[string]any{"type": "pong"}
}

// dataEnvelope wraps one analysis entry (result or per-ticker error) for a group.
func dataEnvelope(group string, payload json.RawMessage, at time.Time) (map[string]any, error) {
	var data any
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	return map[string]any{
		"type":     "message",
		"from":     "group",
		"group":    group,
		"dataType": "json",
		"sentAt":   at.UTC().Format(time.RFC3339),
		"data":     data,
	}, nil
}
