// internal/server/handlers/websocket.go

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"agentesocial/internal/adapter/events"
)

// WebSocketConfig contains configuration for WebSocket connections
type WebSocketConfig struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer
	PongWait time.Duration

	// Send pings to peer with this period
	PingPeriod time.Duration

	// Maximum message size allowed from peer
	MaxMessageSize int64

	// Outbound messages buffered per client before events are dropped
	SendBuffer int
}

// DefaultWebSocketConfig returns the default WebSocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 4096,
		SendBuffer:     256,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// origins are enforced by the CORS middleware
		return true
	},
}

// viralStreamClient is one websocket subscriber of the viral event stream
type viralStreamClient struct {
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
	once     sync.Once
	cancel   func()
	minScore float64
	config   WebSocketConfig
	logger   logrus.FieldLogger
}

// ViralityWebSocketHandler streams viral content events to websocket clients.
// The optional min_score query parameter filters events by virality score.
func ViralityWebSocketHandler(subscriber events.Subscriber, topic string, logger logrus.FieldLogger) http.HandlerFunc {
	config := DefaultWebSocketConfig()

	return func(w http.ResponseWriter, r *http.Request) {
		if subscriber == nil {
			respondWithError(w, r, logger, http.StatusServiceUnavailable, "Event stream is not configured", nil)
			return
		}

		var minScore float64
		if raw := r.URL.Query().Get("min_score"); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				respondWithError(w, r, logger, http.StatusBadRequest, "Invalid min_score", nil)
				return
			}
			minScore = v
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WithError(err).Warn("Failed to upgrade to WebSocket")
			return
		}

		client := &viralStreamClient{
			conn:     conn,
			send:     make(chan []byte, config.SendBuffer),
			done:     make(chan struct{}),
			minScore: minScore,
			config:   config,
			logger:   logger.WithField("remote_addr", r.RemoteAddr),
		}

		cancel, err := subscriber.Subscribe(events.StreamSubject(topic), client.deliver)
		if err != nil {
			client.logger.WithError(err).Error("Failed to subscribe to viral events")
			client.close()
			return
		}
		client.cancel = cancel

		welcome, _ := json.Marshal(map[string]interface{}{
			"type":      "welcome",
			"topic":     topic,
			"min_score": minScore,
			"time":      time.Now().UTC(),
		})
		client.send <- welcome

		go client.writePump()
		go client.readPump()

		client.logger.Info("New viral stream connection")
	}
}

// deliver queues an event for the client, dropping it when the client lags
func (c *viralStreamClient) deliver(data []byte) {
	if c.minScore > 0 {
		var event events.Event
		if err := json.Unmarshal(data, &event); err != nil {
			c.logger.WithError(err).Warn("Skipping malformed event")
			return
		}
		if event.Content.ViralityScore < c.minScore {
			return
		}
	}

	select {
	case <-c.done:
	case c.send <- data:
	default:
		c.logger.Warn("Client send buffer full, dropping event")
	}
}

// readPump drains the connection so pongs and close frames are processed
func (c *viralStreamClient) readPump() {
	defer c.close()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.WithError(err).Warn("WebSocket error")
			}
			return
		}
	}
}

// writePump pumps queued events to the WebSocket connection
func (c *viralStreamClient) writePump() {
	ticker := time.NewTicker(c.config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close unsubscribes and closes the connection once
func (c *viralStreamClient) close() {
	c.once.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}
		close(c.done)
		c.conn.Close()
		c.logger.Info("Viral stream connection closed")
	})
}
