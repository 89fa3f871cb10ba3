package rabbit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Neamul01/breeze-time-server/internal/storage"
	"github.com/bytedance/sonic"
)

// Message is the queue payload of a fired reminder.
type Message struct {
	NotificationID string    `json:"notificationId"`
	EventID        string    `json:"eventId"`
	EventName      string    `json:"eventName"`
	Message        string    `json:"message"`
	StartTime      time.Time `json:"startTime"`
	FireAt         time.Time `json:"fireAt"`
	Recipient      string    `json:"recipient,omitempty"`
}

// NewMessage builds the payload for n. The event host is the recipient.
func NewMessage(n storage.Notification, e storage.Event) Message {
	return Message{
		NotificationID: n.ID,
		EventID:        n.EventID,
		EventName:      e.Name,
		Message:        n.Message,
		StartTime:      e.DateTime,
		FireAt:         n.FireAt,
		Recipient:      e.HostID,
	}
}

// HasEmailRecipient reports whether the recipient looks like an email address.
func (m Message) HasEmailRecipient() bool {
	at := strings.LastIndex(m.Recipient, "@")
	return at > 0 && at < len(m.Recipient)-1 && !strings.ContainsAny(m.Recipient, " \t\r\n")
}

func (m Message) Encode() ([]byte, error) {
	return sonic.Marshal(m)
}

func DecodeMessage(body []byte) (Message, error) {
	var m Message
	if err := sonic.Unmarshal(body, &m); err != nil {
		return Message{}, fmt.Errorf("failed to decode message: %w", err)
	}
	return m, nil
}

type publisher interface {
	Publish(ctx context.Context, body []byte) error
}

// Publisher forwards stored notifications to the queue.
type Publisher struct {
	queue publisher
}

func NewPublisher(queue publisher) *Publisher {
	return &Publisher{queue: queue}
}

func (p *Publisher) Publish(ctx context.Context, n storage.Notification, e storage.Event) error {
	body, err := NewMessage(n, e).Encode()
	if err != nil {
		return fmt.Errorf("failed to encode notification %s: %w", n.ID, err)
	}
	return p.queue.Publish(ctx, body)
}
