package events

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

// Subscriber delivers raw event payloads for a subject until the returned
// cancel func is called
type Subscriber interface {
	Subscribe(subject string, handler func(data []byte)) (cancel func(), err error)
}

// NATSSubscriber implements Subscriber on a NATS connection
type NATSSubscriber struct {
	conn *nats.Conn
}

// NewNATSSubscriber creates a subscriber on conn
func NewNATSSubscriber(conn *nats.Conn) *NATSSubscriber {
	return &NATSSubscriber{conn: conn}
}

// Subscribe registers handler for subject, wildcards included
func (s *NATSSubscriber) Subscribe(subject string, handler func(data []byte)) (func(), error) {
	sub, err := s.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("error subscribing to %s: %w", subject, err)
	}

	return func() { _ = sub.Unsubscribe() }, nil
}
