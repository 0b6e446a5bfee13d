package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentesocial/internal/domain/virality"
	"agentesocial/internal/logging"
	"agentesocial/internal/metrics"
)

type recordingConn struct {
	msgs []*nats.Msg
	err  error
}

func (c *recordingConn) PublishMsg(m *nats.Msg) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, m)
	return nil
}

func TestSubjects(t *testing.T) {
	assert.Equal(t, "virality.viral.detected", ViralSubject("virality"))
	assert.Equal(t, "virality.>", StreamSubject("virality"))
}

func TestPublishViral(t *testing.T) {
	conn := &recordingConn{}
	m := metrics.New(prometheus.NewRegistry())
	pub := NewPublisher(conn, "virality", m, logging.Discard())
	pub.clock = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }

	result := virality.Result{ContentID: "p1", ViralityScore: 92.5, Classification: virality.ClassSuperViral}
	require.NoError(t, pub.PublishViral(context.Background(), result))

	require.Len(t, conn.msgs, 1)
	msg := conn.msgs[0]
	assert.Equal(t, "virality.viral.detected", msg.Subject)

	var event Event
	require.NoError(t, json.Unmarshal(msg.Data, &event))
	assert.Equal(t, TypeViralDetected, event.Type)
	assert.Equal(t, "p1", event.Content.ContentID)
	assert.Equal(t, 92.5, event.Content.ViralityScore)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, event.ID, msg.Header.Get(nats.MsgIdHdr))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues("virality.viral.detected", "ok")))
}

func TestPublishViralErrors(t *testing.T) {
	conn := &recordingConn{err: errors.New("nats: connection closed")}
	m := metrics.New(prometheus.NewRegistry())
	pub := NewPublisher(conn, "virality", m, logging.Discard())

	err := pub.PublishViral(context.Background(), virality.Result{ContentID: "p1"})
	assert.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues("virality.viral.detected", "error")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, pub.PublishViral(ctx, virality.Result{}), context.Canceled)
}
