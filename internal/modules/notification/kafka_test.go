package notification

import (
	"context"
	"encoding/json"
	"testing"

	"studiobooking/internal/domain"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type markerFunc func(id int64, ch domain.DeliveryMethod)

func (f markerFunc) MarkDelivered(_ context.Context, id int64, ch domain.DeliveryMethod) error {
	f(id, ch)
	return nil
}

func TestKafkaPublisher_Deliver(t *testing.T) {
	w := &fakeWriter{}
	var marked []domain.DeliveryMethod
	p := &KafkaPublisher{writer: w, marker: markerFunc(func(_ int64, ch domain.DeliveryMethod) {
		marked = append(marked, ch)
	})}

	n := note(77, "Booking received")
	n.ID = 5
	n.DeliveryMethod = domain.DeliveryAll
	require.NoError(t, p.Deliver(context.Background(), &n))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "booking:77", string(w.msgs[0].Key))

	var ev OutboundEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, int64(5), ev.NotificationID)
	assert.Equal(t, []domain.DeliveryMethod{domain.DeliveryEmail, domain.DeliverySMS}, ev.Channels)
	assert.Equal(t, []domain.DeliveryMethod{domain.DeliveryEmail, domain.DeliverySMS}, marked)
}

func TestKafkaPublisher_SkipsInApp(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, marker: markerFunc(func(int64, domain.DeliveryMethod) {})}

	n := note(1, "x")
	n.DeliveryMethod = domain.DeliveryInApp
	require.NoError(t, p.Deliver(context.Background(), &n))
	assert.Empty(t, w.msgs)
}
