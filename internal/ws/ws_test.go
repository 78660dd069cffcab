package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dgnsrekt/options-levels/internal/analysis"
	"github.com/dgnsrekt/options-levels/internal/batch"
)

type fakeAnalyzer struct{}

func (fakeAnalyzer) Analyze(ctx context.Context, ticker string) (*analysis.AnalysisResult, error) {
	if ticker == "BAD" {
		return nil, fmt.Errorf("%w for %s", analysis.ErrNoQuoteData, ticker)
	}
	return &analysis.AnalysisResult{Symbol: ticker, CurrentPrice: 100, Expiration: "2024-01-19"}, nil
}

func TestParseUpstreamMessage(t *testing.T) {
	msg, err := parseUpstreamMessage([]byte(`{"type":"joinGroup","group":"tsla","ackId":7}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	join, ok := msg.(*joinGroupRequest)
	if !ok {
		t.Fatalf("expected join request, got %T", msg)
	}
	if join.group != "tsla" || join.ackID == nil || *join.ackID != 7 {
		t.Errorf("unexpected join request %+v", join)
	}

	if _, err := parseUpstreamMessage([]byte(`{"type":"sendToGroup"}`)); err == nil {
		t.Error("expected error for unknown type")
	}
	if _, err := parseUpstreamMessage([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed message")
	}
}

func TestTickerGroup(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"tsla", "TSLA", true},
		{" brk.b ", "BRK.B", true},
		{"", "", false},
		{"NOT-A-TICKER", "", false},
	}
	for _, tt := range tests {
		got, ok := TickerGroup(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("TickerGroup(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEncoderBinaryRoundTrip(t *testing.T) {
	enc, err := NewEncoder()
	if err != nil {
		t.Fatal(err)
	}
	defer enc.Close()

	env, err := dataEnvelope("TSLA", json.RawMessage(`{"symbol":"TSLA","currentPrice":101.5}`), time.Unix(0, 0))
	if err != nil {
		t.Fatal(err)
	}
	frame, err := enc.Encode(env)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(string(frame.Text), `"group":"TSLA"`) {
		t.Errorf("text frame missing group: %s", frame.Text)
	}

	decoded, err := enc.DecodeBinary(frame.Binary)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	data, ok := decoded["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %T", decoded["data"])
	}
	if data["currentPrice"] != 101.5 {
		t.Errorf("expected price 101.5, got %v", data["currentPrice"])
	}
	if decoded["sentAt"] != "1970-01-01T00:00:00Z" {
		t.Errorf("unexpected sentAt %v", decoded["sentAt"])
	}
}

type harness struct {
	hub      *Hub
	streamer *Streamer
	encoder  *Encoder
	server   *httptest.Server
	cancel   context.CancelFunc
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zap.NewNop()

	enc, err := NewEncoder()
	if err != nil {
		t.Fatal(err)
	}
	hub := NewHub("levels", TickerGroup, logger)
	manager := batch.NewManager(fakeAnalyzer{}, 2, 15, logger)
	streamer := NewStreamer(hub, manager, enc, time.Hour, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(hub.HandleWS(enc))
	h := &harness{hub: hub, streamer: streamer, encoder: enc, server: srv, cancel: cancel}
	t.Cleanup(func() {
		srv.Close()
		cancel()
		enc.Close()
	})
	return h
}

func (h *harness) dial(t *testing.T, protocol string) (*websocket.Conn, string) {
	t.Helper()
	dialer := websocket.Dialer{}
	if protocol != "" {
		dialer.Subprotocols = []string{protocol}
	}
	url := "ws" + strings.TrimPrefix(h.server.URL, "http")
	conn, resp, err := dialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, resp.Header.Get("Sec-WebSocket-Protocol")
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	mt, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if mt != websocket.TextMessage {
		t.Fatalf("expected text frame, got %d", mt)
	}
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return msg
}

func TestHandleWS_JoinAndAck(t *testing.T) {
	h := newHarness(t)
	conn, proto := h.dial(t, "")
	if proto != "" {
		t.Errorf("expected no subprotocol header, got %q", proto)
	}

	connected := readJSON(t, conn)
	if connected["event"] != "connected" || connected["connectionId"] == "" {
		t.Fatalf("unexpected connected message %v", connected)
	}

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"joinGroup","group":"tsla","ackId":1}`))
	ack := readJSON(t, conn)
	if ack["type"] != "ack" || ack["success"] != true || ack["ackId"] != float64(1) {
		t.Fatalf("unexpected ack %v", ack)
	}

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"joinGroup","group":"not-valid!","ackId":2}`))
	nack := readJSON(t, conn)
	if nack["success"] != false || nack["error"] == nil {
		t.Fatalf("expected failed ack, got %v", nack)
	}

	groups := h.hub.GetActiveGroups()
	if len(groups) != 1 || groups[0] != "TSLA" {
		t.Errorf("expected [TSLA], got %v", groups)
	}

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`))
	if pong := readJSON(t, conn); pong["type"] != "pong" {
		t.Errorf("expected pong, got %v", pong)
	}

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"leaveGroup","group":"TSLA","ackId":3}`))
	readJSON(t, conn)
	if groups := h.hub.GetActiveGroups(); len(groups) != 0 {
		t.Errorf("expected no groups after leave, got %v", groups)
	}
}

func TestStreamer_JoinTriggersAnalysis(t *testing.T) {
	h := newHarness(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.streamer.Run(ctx)

	conn, _ := h.dial(t, ProtocolJSON)
	readJSON(t, conn) // connected

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"joinGroup","group":"aapl","ackId":1}`))

	// the ack and the first levels message may arrive in either order
	var msg map[string]any
	for range 2 {
		if m := readJSON(t, conn); m["type"] == "message" {
			msg = m
			break
		}
	}
	if msg == nil {
		t.Fatal("no levels message received")
	}
	if msg["group"] != "AAPL" {
		t.Fatalf("unexpected message %v", msg)
	}
	data := msg["data"].(map[string]any)
	if data["symbol"] != "AAPL" || data["currentPrice"] != float64(100) {
		t.Errorf("unexpected payload %v", data)
	}
}

func TestStreamer_RefreshBinaryAndErrors(t *testing.T) {
	h := newHarness(t)

	conn, proto := h.dial(t, ProtocolProtobuf)
	if proto != ProtocolProtobuf {
		t.Fatalf("expected protobuf subprotocol, got %q", proto)
	}

	read := func() map[string]any {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		mt, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if mt != websocket.BinaryMessage {
			t.Fatalf("expected binary frame, got %d", mt)
		}
		msg, err := h.encoder.DecodeBinary(data)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		return msg
	}

	if connected := read(); connected["event"] != "connected" {
		t.Fatalf("unexpected connected message %v", connected)
	}

	// upstream messages from binary clients are JSON in binary frames
	conn.WriteMessage(websocket.BinaryMessage, []byte(`{"type":"joinGroup","group":"BAD","ackId":1}`))
	if ack := read(); ack["success"] != true {
		t.Fatalf("unexpected ack %v", ack)
	}

	h.streamer.refresh(context.Background(), h.hub.GetActiveGroups())

	msg := read()
	data, ok := msg["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %v", msg)
	}
	if data["kind"] != string(analysis.KindNoQuoteData) || data["symbol"] != "BAD" {
		t.Errorf("expected error entry for BAD, got %v", data)
	}
}

func TestNegotiate(t *testing.T) {
	h := NewNegotiateHandler(30*time.Second, 15, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/ws/negotiate", nil)
	req.Host = "levels.local:8080"
	rec := httptest.NewRecorder()

	h.HandleNegotiate(rec, req)

	var resp NegotiateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.WebsocketURL != "ws://levels.local:8080/ws" {
		t.Errorf("unexpected url %s", resp.WebsocketURL)
	}
	if len(resp.Protocols) != 2 || resp.StreamInterval != "30s" || resp.MaxBatchSize != 15 {
		t.Errorf("unexpected response %+v", resp)
	}
}
