package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"studiobooking/internal/database"
	"studiobooking/internal/domain"
	"studiobooking/internal/pkg/keylock"
	"studiobooking/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (r *recordingNotifier) Emit(n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) types() []domain.NotificationType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.NotificationType, 0, len(r.sent))
	for _, n := range r.sent {
		out = append(out, n.Type)
	}
	return out
}

type testEnv struct {
	svc      *Service
	db       *gorm.DB
	bookings *repository.BookingRepository
	studios  *repository.StudioRepository
	notes    *recordingNotifier
}

func setupTestService(t *testing.T) *testEnv {
	t.Helper()
	db := database.OpenTest(t)
	env := &testEnv{
		db:       db,
		bookings: repository.NewBookingRepository(db),
		studios:  repository.NewStudioRepository(db),
		notes:    &recordingNotifier{},
	}
	env.svc = NewService(env.bookings, env.studios, repository.NewTransactor(db), keylock.NewMemory(), env.notes, zap.NewNop())
	return env
}

func (e *testEnv) studio(t *testing.T, rate float64) *domain.Studio {
	t.Helper()
	s := &domain.Studio{Name: fmt.Sprintf("Studio %v", rate), HourlyRate: rate, IsActive: true}
	require.NoError(t, e.studios.Create(context.Background(), s))
	return s
}

var (
	client  = domain.Actor{UserID: 10, Role: domain.RoleClient}
	client2 = domain.Actor{UserID: 11, Role: domain.RoleClient}
	staff   = domain.Actor{UserID: 1, Role: domain.RoleStaff}
)

func book(s int64, start, end int) CreateInput {
	return CreateInput{StudioID: s, StartTime: hr(start), EndTime: hr(end)}
}

func TestCreateBooking_AdmitsAndPrices(t *testing.T) {
	env := setupTestService(t)
	s := env.studio(t, 50)

	b, err := env.svc.CreateBooking(context.Background(), client, book(s.ID, 10, 12))
	require.NoError(t, err)
	assert.Equal(t, domain.BookingPending, b.Status)
	assert.Equal(t, domain.PaymentPending, b.PaymentStatus)
	assert.Equal(t, 100.0, b.TotalPrice)
	assert.Equal(t, client.UserID, b.UserID)
	assert.Equal(t, []domain.NotificationType{domain.NotifConfirmation}, env.notes.types())
}

func TestCreateBooking_Rejections(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	s := env.studio(t, 50)

	_, err := env.svc.CreateBooking(ctx, client, book(s.ID, 12, 10))
	assert.ErrorIs(t, err, ErrInvalidInterval)
	_, err = env.svc.CreateBooking(ctx, client, book(s.ID, 10, 10))
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = env.svc.CreateBooking(ctx, client, book(9999, 10, 11))
	assert.ErrorIs(t, err, ErrNotFound)

	inactive := env.studio(t, 10)
	inactive.IsActive = false
	require.NoError(t, env.studios.Update(ctx, inactive))
	_, err = env.svc.CreateBooking(ctx, client, book(inactive.ID, 10, 11))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateBooking_OverlapRules(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	s := env.studio(t, 40)
	other := env.studio(t, 40)

	first, err := env.svc.CreateBooking(ctx, client, book(s.ID, 9, 10))
	require.NoError(t, err)

	_, err = env.svc.CreateBooking(ctx, client2, book(s.ID, 10, 11))
	assert.NoError(t, err, "touching intervals do not conflict")

	_, err = env.svc.CreateBooking(ctx, client2, book(s.ID, 9, 11))
	assert.ErrorIs(t, err, ErrBookingConflict)

	_, err = env.svc.CreateBooking(ctx, client2, book(other.ID, 9, 10))
	assert.NoError(t, err, "other studios are independent")

	_, err = env.svc.CancelBooking(ctx, first.ID, client, "")
	require.NoError(t, err)
	_, err = env.svc.CreateBooking(ctx, client2, book(s.ID, 9, 10))
	assert.NoError(t, err, "cancelling frees the interval")
}

func TestCreateBooking_ConcurrentSameStudio(t *testing.T) {
	env := setupTestService(t)
	s := env.studio(t, 25)

	const n = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// every candidate overlaps [10,12)
			in := CreateInput{StudioID: s.ID, StartTime: hr(10).Add(time.Duration(i) * time.Minute), EndTime: hr(12)}
			_, err := env.svc.CreateBooking(context.Background(), domain.Actor{UserID: int64(100 + i), Role: domain.RoleClient}, in)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrBookingConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)

	all, err := env.bookings.FindBookingsForStudioInRange(context.Background(), s.ID, hr(0), hr(24), domain.BookingCancelled)
	require.NoError(t, err)
	assertNoOverlap(t, all)
}

func TestCreateBooking_ConcurrentMixedIntervals(t *testing.T) {
	env := setupTestService(t)
	studios := []*domain.Studio{env.studio(t, 10), env.studio(t, 20)}

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := studios[i%2]
			start := i % 6
			_, _ = env.svc.CreateBooking(context.Background(), client, book(s.ID, start, start+2))
		}(i)
	}
	wg.Wait()

	for _, s := range studios {
		all, err := env.bookings.FindBookingsForStudioInRange(context.Background(), s.ID, hr(0), hr(24), domain.BookingCancelled)
		require.NoError(t, err)
		assert.NotEmpty(t, all)
		assertNoOverlap(t, all)
	}
}

func assertNoOverlap(t *testing.T, bookings []domain.Booking) {
	t.Helper()
	for i := range bookings {
		for j := i + 1; j < len(bookings); j++ {
			a := Interval{Start: bookings[i].StartTime, End: bookings[i].EndTime}
			b := Interval{Start: bookings[j].StartTime, End: bookings[j].EndTime}
			assert.False(t, a.Overlaps(b), "bookings %d and %d overlap", bookings[i].ID, bookings[j].ID)
		}
	}
}

func TestCancelBooking(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	s := env.studio(t, 30)

	b, err := env.svc.CreateBooking(ctx, client, book(s.ID, 1, 2))
	require.NoError(t, err)

	_, err = env.svc.CancelBooking(ctx, 424242, client, "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.svc.CancelBooking(ctx, b.ID, client2, "")
	assert.ErrorIs(t, err, ErrForbidden)

	cancelled, err := env.svc.CancelBooking(ctx, b.ID, client, "plans changed")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, cancelled.Status)
	assert.Equal(t, "plans changed", cancelled.CancellationReason)
	require.NotNil(t, cancelled.CancelledAt)

	_, err = env.svc.CancelBooking(ctx, b.ID, client, "")
	assert.ErrorIs(t, err, ErrAlreadyTerminal)

	assert.Equal(t, []domain.NotificationType{domain.NotifConfirmation, domain.NotifCancellation}, env.notes.types())
}

func TestStaffCanCancelConfirmed(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	s := env.studio(t, 30)

	b, err := env.svc.CreateBooking(ctx, client, book(s.ID, 1, 2))
	require.NoError(t, err)

	_, err = env.svc.ConfirmBooking(ctx, b.ID, client)
	assert.ErrorIs(t, err, ErrForbidden)

	confirmed, err := env.svc.ConfirmBooking(ctx, b.ID, staff)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, confirmed.Status)

	_, err = env.svc.ConfirmBooking(ctx, b.ID, staff)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = env.svc.CancelBooking(ctx, b.ID, staff, "studio flooded")
	require.NoError(t, err)
}

func TestCompleteBooking(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	s := env.studio(t, 30)

	b, err := env.svc.CreateBooking(ctx, client, book(s.ID, 1, 2))
	require.NoError(t, err)
	_, err = env.svc.ConfirmBooking(ctx, b.ID, staff)
	require.NoError(t, err)

	env.svc.now = func() time.Time { return hr(1) }
	_, err = env.svc.CompleteBooking(ctx, b.ID, staff)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition, "not ended yet")

	_, err = env.svc.CompleteBooking(ctx, b.ID, client)
	assert.ErrorIs(t, err, ErrForbidden)

	env.svc.now = func() time.Time { return hr(2) }
	done, err := env.svc.CompleteBooking(ctx, b.ID, staff)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCompleted, done.Status)

	_, err = env.svc.CancelBooking(ctx, b.ID, client, "")
	assert.ErrorIs(t, err, ErrAlreadyTerminal)
}

func TestRescheduleBooking(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	s := env.studio(t, 60)

	b, err := env.svc.CreateBooking(ctx, client, book(s.ID, 10, 11))
	require.NoError(t, err)
	_, err = env.svc.CreateBooking(ctx, client2, book(s.ID, 13, 14))
	require.NoError(t, err)

	moved, err := env.svc.RescheduleBooking(ctx, b.ID, client, RescheduleInput{StartTime: hr(10), EndTime: hr(12)})
	require.NoError(t, err, "own interval does not block")
	assert.Equal(t, 120.0, moved.TotalPrice)

	_, err = env.svc.RescheduleBooking(ctx, b.ID, client, RescheduleInput{StartTime: hr(12), EndTime: hr(14)})
	assert.ErrorIs(t, err, ErrBookingConflict)

	_, err = env.svc.RescheduleBooking(ctx, b.ID, client2, RescheduleInput{StartTime: hr(15), EndTime: hr(16)})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.svc.ConfirmBooking(ctx, b.ID, staff)
	require.NoError(t, err)
	_, err = env.svc.RescheduleBooking(ctx, b.ID, client, RescheduleInput{StartTime: hr(15), EndTime: hr(16)})
	assert.ErrorIs(t, err, ErrInvalidStatusTransition, "price is frozen once confirmed")

	stored, err := env.bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 120.0, stored.TotalPrice)
}

func TestAvailability(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	s := env.studio(t, 60)

	a, err := env.svc.CreateBooking(ctx, client, book(s.ID, 9, 10))
	require.NoError(t, err)
	_, err = env.svc.ConfirmBooking(ctx, a.ID, staff)
	require.NoError(t, err)
	_, err = env.svc.CreateBooking(ctx, client, book(s.ID, 12, 13))
	require.NoError(t, err)

	busy, err := env.svc.Availability(ctx, s.ID, iv(0, 24), false)
	require.NoError(t, err)
	assert.Len(t, busy, 2)

	busy, err = env.svc.Availability(ctx, s.ID, iv(0, 24), true)
	require.NoError(t, err)
	assert.Equal(t, []Interval{iv(9, 10)}, busy)

	_, err = env.svc.Availability(ctx, s.ID, iv(5, 5), false)
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestGetAndListBookings(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	s := env.studio(t, 60)

	b, err := env.svc.CreateBooking(ctx, client, book(s.ID, 9, 10))
	require.NoError(t, err)

	_, err = env.svc.GetBooking(ctx, b.ID, client2)
	assert.ErrorIs(t, err, ErrForbidden)
	got, err := env.svc.GetBooking(ctx, b.ID, staff)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	page, err := env.svc.ListMine(ctx, client, false, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	page, err = env.svc.ListMine(ctx, client2, false, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Bookings)

	list, err := env.svc.ListForStudio(ctx, s.ID, repository.BookingFilter{Status: domain.BookingPending})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

type failingInsert struct {
	*repository.BookingRepository
	err error
}

func (f failingInsert) InsertBooking(context.Context, *domain.Booking) error { return f.err }

func TestCreateBooking_StorageFailureIsTransient(t *testing.T) {
	env := setupTestService(t)
	s := env.studio(t, 10)
	notes := &recordingNotifier{}

	svc := NewService(failingInsert{env.bookings, errors.New("connection reset")}, env.studios,
		repository.NewTransactor(env.db), keylock.NewMemory(), notes, zap.NewNop())
	_, err := svc.CreateBooking(context.Background(), client, book(s.ID, 1, 2))
	assert.ErrorIs(t, err, ErrTransient)
	assert.NotErrorIs(t, err, ErrBookingConflict)
	assert.Empty(t, notes.types())

	svc = NewService(failingInsert{env.bookings, fmt.Errorf("%w: bookings_no_overlap", repository.ErrOverlap)}, env.studios,
		repository.NewTransactor(env.db), keylock.NewMemory(), notes, zap.NewNop())
	_, err = svc.CreateBooking(context.Background(), client, book(s.ID, 1, 2))
	assert.ErrorIs(t, err, ErrBookingConflict)
}

func TestCreateBooking_LockTimeoutIsTransient(t *testing.T) {
	env := setupTestService(t)
	s := env.studio(t, 10)
	locks := keylock.NewMemory()
	svc := NewService(env.bookings, env.studios, repository.NewTransactor(env.db), locks, env.notes, zap.NewNop())

	unlock, err := locks.Lock(context.Background(), keylock.StudioKey(s.ID))
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = svc.CreateBooking(ctx, client, book(s.ID, 1, 2))
	assert.ErrorIs(t, err, ErrTransient)
}

func TestAdmission_EndToEndScenario(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	s := env.studio(t, 80)
	at := func(h, m int) time.Time { return time.Date(2024, 1, 10, h, m, 0, 0, time.UTC) }

	a, err := env.svc.CreateBooking(ctx, client, CreateInput{StudioID: s.ID, StartTime: at(10, 0), EndTime: at(11, 0)})
	require.NoError(t, err)
	assert.Equal(t, domain.BookingPending, a.Status)
	assert.Equal(t, 80.0, a.TotalPrice)

	_, err = env.svc.CreateBooking(ctx, client2, CreateInput{StudioID: s.ID, StartTime: at(10, 30), EndTime: at(11, 30)})
	assert.ErrorIs(t, err, ErrBookingConflict)

	b, err := env.svc.CreateBooking(ctx, client2, CreateInput{StudioID: s.ID, StartTime: at(11, 0), EndTime: at(12, 0)})
	require.NoError(t, err)
	assert.Equal(t, at(11, 0), b.StartTime)
}
