// Package keylock provides mutual exclusion scoped to a string key, such as
// one studio. Holders of different keys never wait on each other.
package keylock

import (
	"context"
	"strconv"
)

// Locker acquires the lock for key, blocking until it is free or ctx is done.
// The returned function releases it and must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// StudioKey is the lock key shared by every operation that reads or changes
// one studio's bookings.
func StudioKey(studioID int64) string {
	return "studio:" + strconv.FormatInt(studioID, 10)
}
