package notify

import (
	"context"

	"github.com/quickbite/marketplace/internal/mykafka"
)

const (
	TemplateOrderConfirmation = "orders/order-confirmation"
	TemplateNewOrderReceived  = "orders/new-order-received"
)

// Notifier dispatches a templated notification to a recipient. The
// mailer consumes these from the notification topic.
type Notifier interface {
	Send(ctx context.Context, subject, template, recipient string, payload map[string]interface{}) error
}

type Sender struct {
	Publisher mykafka.Publisher
	Topic     string
}

func NewSender(p mykafka.Publisher) *Sender {
	return &Sender{Publisher: p, Topic: "notification_events"}
}

func (s *Sender) Send(ctx context.Context, subject, template, recipient string, payload map[string]interface{}) error {
	event := map[string]interface{}{
		"subject":   subject,
		"template":  template,
		"recipient": recipient,
		"context":   payload,
	}
	return s.Publisher.PublishEvent(ctx, s.Topic, recipient, event)
}
