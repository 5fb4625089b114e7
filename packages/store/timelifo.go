package store

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const cleanInterval = 10 * time.Second

type Timed interface {
	GetIssuedAt() time.Time
}

// TimeLifo keeps messages issued within duration, at most maxSize of them.
type TimeLifo[T Timed] struct {
	msgs     []T
	duration time.Duration
	maxSize  int
	msgsLock sync.Mutex
	now      func() time.Time
}

func (l *TimeLifo[T]) Store(msg T) error {
	l.msgsLock.Lock()
	defer l.msgsLock.Unlock()

	l.msgs = append(l.msgs, msg)
	if l.maxSize > 0 && len(l.msgs) > l.maxSize {
		l.msgs = l.msgs[len(l.msgs)-l.maxSize:]
	}
	return nil
}

func (l *TimeLifo[T]) Get() []T {
	l.msgsLock.Lock()
	defer l.msgsLock.Unlock()

	msgs := make([]T, len(l.msgs))
	// reverse the order
	for i, msg := range l.msgs {
		msgs[len(l.msgs)-i-1] = msg
	}
	return msgs
}

func (l *TimeLifo[T]) Count() int {
	l.msgsLock.Lock()
	defer l.msgsLock.Unlock()
	return len(l.msgs)
}

// clean drops messages older than duration. Messages are stored in issue order.
func (l *TimeLifo[T]) clean() {
	l.msgsLock.Lock()
	defer l.msgsLock.Unlock()

	now := l.now()
	for i, msg := range l.msgs {
		if now.Sub(msg.GetIssuedAt()) < l.duration {
			if i > 0 {
				l.msgs = append(l.msgs[:0:0], l.msgs[i:]...)
				slog.Debug("cleaned messages from timeLifo", "amount", i)
			}
			return
		}
	}
	if len(l.msgs) > 0 {
		slog.Debug("cleaned messages from timeLifo", "amount", len(l.msgs))
	}
	l.msgs = l.msgs[:0]
}

// NewTimeLifo returns a store which is cleaned periodically until ctx is done.
func NewTimeLifo[T Timed](ctx context.Context, duration time.Duration, maxSize int) *TimeLifo[T] {
	timeLifoStore := &TimeLifo[T]{
		msgs:     make([]T, 0),
		duration: duration,
		maxSize:  maxSize,
		now:      time.Now,
	}
	ticker := time.NewTicker(cleanInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				timeLifoStore.clean()
			}
		}
	}()

	return timeLifoStore
}
