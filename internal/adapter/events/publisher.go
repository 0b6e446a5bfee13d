// internal/adapter/events/publisher.go

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"agentesocial/internal/domain/virality"
	"agentesocial/internal/metrics"
)

// Event types carried in Event.Type
const (
	TypeViralDetected = "viral.detected"
)

// MsgPublisher is the part of *nats.Conn the publisher needs
type MsgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

// Event is the envelope published on the bus
type Event struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Time    time.Time       `json:"time"`
	Content virality.Result `json:"content"`
}

// ViralSubject is the subject viral detections are published on
func ViralSubject(topic string) string {
	return fmt.Sprintf("%s.%s", topic, TypeViralDetected)
}

// StreamSubject matches every event published under topic
func StreamSubject(topic string) string {
	return topic + ".>"
}

// Publisher implements virality.Publisher on NATS
type Publisher struct {
	conn    MsgPublisher
	topic   string
	metrics *metrics.Metrics
	logger  logrus.FieldLogger
	clock   func() time.Time
}

// NewPublisher creates a new NATS event publisher. m may be nil.
func NewPublisher(conn MsgPublisher, topic string, m *metrics.Metrics, logger logrus.FieldLogger) *Publisher {
	return &Publisher{
		conn:    conn,
		topic:   topic,
		metrics: m,
		logger:  logger,
		clock:   time.Now,
	}
}

// PublishViral announces a viral or super viral result
func (p *Publisher) PublishViral(ctx context.Context, r virality.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	event := Event{
		ID:      uuid.NewString(),
		Type:    TypeViralDetected,
		Time:    p.clock().UTC(),
		Content: r,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("error marshaling event: %w", err)
	}

	subject := ViralSubject(p.topic)
	msg := nats.NewMsg(subject)
	msg.Data = data
	// lets JetStream streams drop duplicates
	msg.Header.Set(nats.MsgIdHdr, event.ID)

	err = p.conn.PublishMsg(msg)
	p.metrics.CountEvent(subject, err)
	if err != nil {
		return fmt.Errorf("error publishing to %s: %w", subject, err)
	}

	p.logger.WithFields(logrus.Fields{
		"event_id":   event.ID,
		"content_id": r.ContentID,
		"score":      r.ViralityScore,
	}).Debug("Published viral content event")

	return nil
}
