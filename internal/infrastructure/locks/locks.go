package locks

import (
	"context"
	"errors"
	"sync"
)

// ErrHeld is returned when another holder owns the key.
var ErrHeld = errors.New("locks: key is held")

// Locker hands out exclusive, non-blocking leases on string keys.
type Locker interface {
	// Acquire takes key or fails with ErrHeld. release gives it back.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Local serialises holders inside one process.
type Local struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocal() *Local {
	return &Local{held: map[string]struct{}{}}
}

func (l *Local) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = map[string]struct{}{}
	}
	if _, ok := l.held[key]; ok {
		return nil, ErrHeld
	}
	l.held[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}
