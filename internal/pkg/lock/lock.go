// Package lock provides short lived keyed mutual exclusion across processes.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotObtained is returned when the lock stays held by someone else until the wait runs out.
var ErrNotObtained = errors.New("lock: not obtained")

// Release gives a held lock back.
type Release func(ctx context.Context) error

// Locker hands out keyed locks.
type Locker interface {
	Lock(ctx context.Context, key string) (Release, error)
}

const (
	DefaultTTL   = 10 * time.Second
	DefaultWait  = 5 * time.Second
	pollInterval = 25 * time.Millisecond
)
