package ws

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024

	// Send buffer size per client.
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
	Subprotocols:    []string{ProtocolJSON, ProtocolProtobuf},
}

// Client represents a WebSocket client connection.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	encoder  *Encoder
	send     chan []byte
	connID   string
	groups   map[string]bool
	logger   *zap.Logger
	protocol string
}

func (c *Client) binary() bool { return c.protocol == ProtocolProtobuf }

// pick selects the frame encoding for this client.
func (c *Client) pick(f Frame) []byte {
	if c.binary() {
		return f.Binary
	}
	return f.Text
}

// HandleWS upgrades the request and starts the client pumps. Clients that
// do not request a known subprotocol get JSON text frames.
func (h *Hub) HandleWS(encoder *Encoder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		protocol := ProtocolJSON
		var responseHeader http.Header
		for _, p := range websocket.Subprotocols(r) {
			if p == ProtocolJSON || p == ProtocolProtobuf {
				protocol = p
				responseHeader = http.Header{"Sec-WebSocket-Protocol": {p}}
				break
			}
		}

		h.logger.Debug("websocket subprotocol negotiated",
			zap.String("protocol", protocol),
			zap.Strings("requested", websocket.Subprotocols(r)),
		)

		conn, err := upgrader.Upgrade(w, r, responseHeader)
		if err != nil {
			h.logger.Error("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			hub:      h,
			conn:     conn,
			encoder:  encoder,
			send:     make(chan []byte, sendBufferSize),
			connID:   uuid.New().String(),
			groups:   make(map[string]bool),
			logger:   h.logger,
			protocol: protocol,
		}

		if !h.enter(client) {
			conn.Close()
			return
		}
		client.reply(connectedEnvelope(client.connID))

		go client.writePump()
		go client.readPump()
	}
}

// readPump reads messages from the WebSocket connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error",
					zap.String("connID", c.connID),
					zap.Error(err),
				)
			}
			break
		}
		c.handleMessage(message)
	}
}

// writePump writes messages to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	msgType := websocket.TextMessage
	if c.binary() {
		msgType = websocket.BinaryMessage
	}

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed, send close message
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(msgType, message); err != nil {
				c.logger.Debug("websocket write error",
					zap.String("connID", c.connID),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming upstream message.
func (c *Client) handleMessage(data []byte) {
	msg, err := parseUpstreamMessage(data)
	if err != nil {
		c.logger.Debug("failed to parse upstream message",
			zap.String("connID", c.connID),
			zap.String("protocol", c.protocol),
			zap.Error(err),
		)
		return
	}

	switch m := msg.(type) {
	case *joinGroupRequest:
		if _, ok := c.hub.JoinGroup(c, m.group); ok {
			c.ack(m.ackID, true, "")
		} else {
			c.logger.Debug("invalid group name",
				zap.String("connID", c.connID),
				zap.String("group", m.group),
			)
			c.ack(m.ackID, false, "invalid ticker symbol")
		}

	case *leaveGroupRequest:
		c.hub.LeaveGroup(c, m.group)
		c.ack(m.ackID, true, "")

	case *pingRequest:
		c.reply(pongEnvelope())
	}
}

func (c *Client) ack(ackID *uint64, success bool, reason string) {
	if ackID == nil {
		return
	}
	c.reply(ackEnvelope(*ackID, success, reason))
}

// reply encodes msg in this client's protocol and queues it.
func (c *Client) reply(msg map[string]any) {
	var (
		payload []byte
		err     error
	)
	if c.binary() {
		payload, err = c.encoder.EncodeBinary(msg)
	} else {
		payload, err = c.encoder.EncodeJSON(msg)
	}
	if err != nil {
		c.logger.Debug("failed to encode reply",
			zap.String("connID", c.connID),
			zap.Error(err),
		)
		return
	}
	c.hub.deliver(c, payload)
}
