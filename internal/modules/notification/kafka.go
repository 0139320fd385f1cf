package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"studiobooking/internal/domain"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DeliveryMarker records that an external channel accepted a notification.
type DeliveryMarker interface {
	MarkDelivered(ctx context.Context, id int64, channel domain.DeliveryMethod) error
}

// OutboundEvent is the message consumed by the email and SMS senders.
type OutboundEvent struct {
	NotificationID int64                   `json:"notification_id"`
	UserID         int64                   `json:"user_id"`
	BookingID      *int64                  `json:"booking_id,omitempty"`
	Type           domain.NotificationType `json:"type"`
	Channels       []domain.DeliveryMethod `json:"channels"`
	Title          string                  `json:"title"`
	Content        string                  `json:"content"`
	SentAt         time.Time               `json:"sent_at"`
}

// KafkaPublisher forwards email and SMS notifications to a topic. Messages
// are keyed by booking so a consumer sees one booking's events in order.
type KafkaPublisher struct {
	writer messageWriter
	marker DeliveryMarker
}

func NewKafkaPublisher(brokers []string, topic string, marker DeliveryMarker) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
		marker: marker,
	}
}

func (p *KafkaPublisher) Deliver(ctx context.Context, n *domain.Notification) error {
	var channels []domain.DeliveryMethod
	for _, ch := range []domain.DeliveryMethod{domain.DeliveryEmail, domain.DeliverySMS} {
		if n.DeliveryMethod.Includes(ch) {
			channels = append(channels, ch)
		}
	}
	if len(channels) == 0 {
		return nil
	}

	data, err := json.Marshal(OutboundEvent{
		NotificationID: n.ID,
		UserID:         n.UserID,
		BookingID:      n.BookingID,
		Type:           n.Type,
		Channels:       channels,
		Title:          n.Title,
		Content:        n.Content,
		SentAt:         n.SentAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	key := "user:" + strconv.FormatInt(n.UserID, 10)
	if n.BookingID != nil {
		key = "booking:" + strconv.FormatInt(*n.BookingID, 10)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: data, Time: n.SentAt}); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	for _, ch := range channels {
		if err := p.marker.MarkDelivered(ctx, n.ID, ch); err != nil {
			return err
		}
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
