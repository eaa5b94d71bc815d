package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/gupfee/greenhaus/internal/domain"
)

// DefaultSubject is the subject cart updates publish to when none is
// configured.
const DefaultSubject = "greenhaus.cart.updated"

// NATSNotifier publishes cart change events as JSON messages on a NATS
// subject, letting storefront processes and external consumers react to cart
// activity without polling the engine.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
}

// NewNATSNotifier creates a notifier over an established connection.
func NewNATSNotifier(conn *nats.Conn, subject string) *NATSNotifier {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSNotifier{conn: conn, subject: subject}
}

// CartUpdated implements Notifier.
func (n *NATSNotifier) CartUpdated(ctx context.Context, update domain.CartUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to encode cart update: %w", err)
	}

	if err := n.conn.Publish(n.subject, payload); err != nil {
		return fmt.Errorf("failed to publish cart update: %w", err)
	}
	return nil
}
