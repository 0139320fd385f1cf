package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"studiobooking/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingStore struct {
	mu     sync.Mutex
	nextID int64
	saved  []domain.Notification
	failOn string
}

func (s *recordingStore) Create(_ context.Context, n *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != "" && n.Title == s.failOn {
		return errors.New("db down")
	}
	s.nextID++
	n.ID = s.nextID
	s.saved = append(s.saved, *n)
	return nil
}

func (s *recordingStore) titlesFor(bookingID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, n := range s.saved {
		if n.BookingID != nil && *n.BookingID == bookingID {
			out = append(out, n.Title)
		}
	}
	return out
}

type failingDeliverer struct{ calls int }

func (d *failingDeliverer) Deliver(context.Context, *domain.Notification) error {
	d.calls++
	return errors.New("smtp unreachable")
}

func note(bookingID int64, title string) domain.Notification {
	id := bookingID
	return domain.Notification{UserID: 1, BookingID: &id, Type: domain.NotifGeneral, Title: title, Content: "c"}
}

func TestEmitter_PreservesPerBookingOrder(t *testing.T) {
	store := &recordingStore{}
	e := NewEmitter(store, zap.NewNop(), 4, 1024)

	for b := int64(1); b <= 8; b++ {
		for _, title := range []string{"created", "paid", "cancelled"} {
			e.Emit(note(b, title))
		}
	}
	e.Close()

	for b := int64(1); b <= 8; b++ {
		assert.Equal(t, []string{"created", "paid", "cancelled"}, store.titlesFor(b))
	}
}

func TestEmitter_FailuresAreSwallowed(t *testing.T) {
	store := &recordingStore{failOn: "broken"}
	d := &failingDeliverer{}
	e := NewEmitter(store, zap.NewNop(), 1, 16, d)

	e.Emit(note(1, "broken"))
	e.Emit(note(1, "fine"))
	e.Close()

	assert.Equal(t, []string{"fine"}, store.titlesFor(1))
	assert.Equal(t, 1, d.calls)
}

func TestEmitter_EmitAfterClose(t *testing.T) {
	store := &recordingStore{}
	e := NewEmitter(store, zap.NewNop(), 2, 4)
	e.Close()
	e.Close()

	require.NotPanics(t, func() { e.Emit(note(1, "late")) })
	assert.Empty(t, store.saved)
}

func TestEmitter_FullQueueDrops(t *testing.T) {
	block := make(chan struct{})
	store := &blockingStore{release: block}
	e := NewEmitter(store, zap.NewNop(), 1, 1)

	for i := 0; i < 10; i++ {
		e.Emit(note(1, "n"))
	}
	close(block)
	e.Close()

	assert.Less(t, store.count, 10)
}

type blockingStore struct {
	release chan struct{}
	mu      sync.Mutex
	count   int
}

func (s *blockingStore) Create(context.Context, *domain.Notification) error {
	<-s.release
	s.mu.Lock()
	s.count++
	s.mu.Unlock()
	return nil
}
