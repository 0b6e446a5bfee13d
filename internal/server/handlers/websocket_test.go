package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentesocial/internal/adapter/events"
	"agentesocial/internal/domain/virality"
	"agentesocial/internal/logging"
)

type fakeSubscriber struct {
	mu        sync.Mutex
	subject   string
	handler   func([]byte)
	cancelled bool
	err       error
}

func (f *fakeSubscriber) Subscribe(subject string, handler func([]byte)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.subject = subject
	f.handler = handler
	return func() {
		f.mu.Lock()
		f.cancelled = true
		f.mu.Unlock()
	}, nil
}

func (f *fakeSubscriber) publish(t *testing.T, score float64) {
	t.Helper()
	data, err := json.Marshal(events.Event{
		ID:      "e1",
		Type:    events.TypeViralDetected,
		Content: virality.Result{ContentID: "p1", ViralityScore: score},
	})
	require.NoError(t, err)

	f.mu.Lock()
	handler := f.handler
	f.mu.Unlock()
	handler(data)
}

func (f *fakeSubscriber) subscribedTo() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subject
}

func (f *fakeSubscriber) isCancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

func dialStream(t *testing.T, sub events.Subscriber, query string) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(ViralityWebSocketHandler(sub, "virality", logging.Discard()))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestViralityWebSocketStreamsEvents(t *testing.T) {
	sub := &fakeSubscriber{}
	conn := dialStream(t, sub, "")

	welcome := readJSON(t, conn)
	assert.Equal(t, "welcome", welcome["type"])
	assert.Equal(t, "virality.>", sub.subscribedTo())

	sub.publish(t, 85)

	msg := readJSON(t, conn)
	assert.Equal(t, events.TypeViralDetected, msg["type"])
	assert.Equal(t, "p1", msg["content"].(map[string]interface{})["content_id"])
}

func TestViralityWebSocketMinScore(t *testing.T) {
	sub := &fakeSubscriber{}
	conn := dialStream(t, sub, "?min_score=90")
	readJSON(t, conn)

	sub.publish(t, 75)
	sub.publish(t, 95)

	msg := readJSON(t, conn)
	assert.Equal(t, 95.0, msg["content"].(map[string]interface{})["virality_score"])
}

func TestViralityWebSocketUnsubscribesOnClose(t *testing.T) {
	sub := &fakeSubscriber{}
	conn := dialStream(t, sub, "")
	readJSON(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	assert.Eventually(t, sub.isCancelled, 2*time.Second, 10*time.Millisecond)
}

func TestViralityWebSocketRejectsRequests(t *testing.T) {
	t.Run("bad min_score", func(t *testing.T) {
		h := ViralityWebSocketHandler(&fakeSubscriber{}, "virality", logging.Discard())
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/ws/virality?min_score=high", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("subscription failure closes the connection", func(t *testing.T) {
		sub := &fakeSubscriber{err: errors.New("nats: connection closed")}
		conn := dialStream(t, sub, "")

		_, _, err := conn.ReadMessage()
		assert.Error(t, err)
	})
}
