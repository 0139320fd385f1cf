package notification

import (
	"context"
	"sync"
	"time"

	"studiobooking/internal/domain"

	"go.uber.org/zap"
)

// Store persists a notification before delivery.
type Store interface {
	Create(ctx context.Context, n *domain.Notification) error
}

// Deliverer hands a stored notification to one delivery channel.
type Deliverer interface {
	Deliver(ctx context.Context, n *domain.Notification) error
}

const deliverTimeout = 5 * time.Second

// Emitter stores and delivers notifications off the request path. Work is
// sharded by booking so one worker sees a booking's notifications in the
// order they were emitted. Nothing it does is reported back to the caller.
type Emitter struct {
	store      Store
	deliverers []Deliverer
	log        *zap.Logger

	mu     sync.RWMutex
	closed bool
	shards []chan domain.Notification
	wg     sync.WaitGroup
}

func NewEmitter(store Store, log *zap.Logger, workers, queueSize int, deliverers ...Deliverer) *Emitter {
	if workers < 1 {
		workers = 1
	}
	e := &Emitter{
		store:      store,
		deliverers: deliverers,
		log:        log,
		shards:     make([]chan domain.Notification, workers),
	}
	for i := range e.shards {
		e.shards[i] = make(chan domain.Notification, queueSize)
		e.wg.Add(1)
		go e.run(e.shards[i])
	}
	return e
}

// Emit queues n without blocking. A full queue drops the notification.
func (e *Emitter) Emit(n domain.Notification) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		e.log.Warn("notification emitted after shutdown", zap.Int64("user_id", n.UserID), zap.String("type", string(n.Type)))
		return
	}

	select {
	case e.shards[e.shardFor(n)] <- n:
	default:
		e.log.Warn("notification queue full, dropping",
			zap.Int64("user_id", n.UserID),
			zap.String("type", string(n.Type)))
	}
}

func (e *Emitter) shardFor(n domain.Notification) int {
	key := n.UserID
	if n.BookingID != nil {
		key = *n.BookingID
	}
	if key < 0 {
		key = -key
	}
	return int(key % int64(len(e.shards)))
}

// Close stops accepting work and waits for queued notifications to finish.
func (e *Emitter) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	for _, ch := range e.shards {
		close(ch)
	}
	e.mu.Unlock()

	e.wg.Wait()
}

func (e *Emitter) run(queue <-chan domain.Notification) {
	defer e.wg.Done()
	for n := range queue {
		e.process(n)
	}
}

func (e *Emitter) process(n domain.Notification) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("notification worker panic", zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()

	if err := e.store.Create(ctx, &n); err != nil {
		e.log.Error("failed to store notification",
			zap.Int64("user_id", n.UserID),
			zap.String("type", string(n.Type)),
			zap.Error(err))
		return
	}

	for _, d := range e.deliverers {
		if err := d.Deliver(ctx, &n); err != nil {
			e.log.Warn("notification delivery failed",
				zap.Int64("notification_id", n.ID),
				zap.Error(err))
		}
	}
}
