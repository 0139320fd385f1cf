package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"studiobooking/internal/domain"
	"studiobooking/internal/modules/payment"
	"studiobooking/internal/pkg/keylock"
	"studiobooking/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// heldLocker wraps a Locker and tracks which keys are currently held.
type heldLocker struct {
	inner keylock.Locker
	mu    sync.Mutex
	held  map[string]bool
}

func newHeldLocker() *heldLocker {
	return &heldLocker{inner: keylock.NewMemory(), held: make(map[string]bool)}
}

func (l *heldLocker) Lock(ctx context.Context, key string) (func(), error) {
	unlock, err := l.inner.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.held[key] = true
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		l.held[key] = false
		l.mu.Unlock()
		unlock()
	}, nil
}

func (l *heldLocker) isHeld(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held[key]
}

type emission struct {
	title  string
	locked bool
}

// lockAwareNotifier records, for every notification, whether the studio lock
// was held at the moment it was emitted.
type lockAwareNotifier struct {
	locks *heldLocker
	key   string
	mu    sync.Mutex
	got   []emission
}

func (n *lockAwareNotifier) Emit(note domain.Notification) {
	locked := n.locks.isHeld(n.key)
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, emission{title: note.Title, locked: locked})
}

func TestNotificationsEmittedUnderStudioLock(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	s := env.studio(t, 50)

	locks := newHeldLocker()
	notes := &lockAwareNotifier{locks: locks, key: keylock.StudioKey(s.ID)}
	tx := repository.NewTransactor(env.db)
	svc := NewService(env.bookings, env.studios, tx, locks, notes, zap.NewNop())
	svc.now = func() time.Time { return hr(0) }
	payments := payment.NewService(repository.NewPaymentRepository(env.db), env.bookings, tx, locks, notes, payment.ModeSum, zap.NewNop())

	b, err := svc.CreateBooking(ctx, client, book(s.ID, 10, 12))
	require.NoError(t, err)
	_, err = svc.RescheduleBooking(ctx, b.ID, client, RescheduleInput{StartTime: hr(11), EndTime: hr(13)})
	require.NoError(t, err)
	_, err = svc.ConfirmBooking(ctx, b.ID, staff)
	require.NoError(t, err)
	_, err = payments.ApplyPayment(ctx, client, b.ID, payment.ApplyInput{Amount: 100, Method: "card"})
	require.NoError(t, err)
	sent, err := svc.SendReminders(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, sent)
	_, err = svc.CancelBooking(ctx, b.ID, client, "plans changed")
	require.NoError(t, err)

	notes.mu.Lock()
	defer notes.mu.Unlock()
	require.Len(t, notes.got, 6)
	for _, e := range notes.got {
		assert.True(t, e.locked, "%q emitted after the studio lock was released", e.title)
	}
	assert.False(t, locks.isHeld(keylock.StudioKey(s.ID)))
}
