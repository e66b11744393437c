// Package realtime delivers change notifications for the board tables.
// Events carry no row data; subscribers reload everything they need.
package realtime

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Tables watched by the feeds.
var Tables = []string{"profiles", "sprints", "work_items"}

// Change is a single notification. Table is empty when the feed resumed
// after a connection loss and events may have been missed.
type Change struct {
	Table string
	At    time.Time
}

// Handler receives changes on the feed goroutine.
type Handler func(Change)

// Subscription is a live feed registration.
type Subscription interface {
	Close() error
}

// subscription owns the goroutine of one Subscribe call.
type subscription struct {
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
	closeFn func() error
	err     error
}

func newSubscription(cancel context.CancelFunc, closeFn func() error) *subscription {
	return &subscription{cancel: cancel, done: make(chan struct{}), closeFn: closeFn}
}

// Close stops the feed goroutine and releases the connection. Only the
// first call does any work.
func (s *subscription) Close() error {
	s.once.Do(func() {
		s.cancel()
		if s.closeFn != nil {
			s.err = s.closeFn()
		}
		<-s.done
	})
	return s.err
}

func isBoardTable(name string) bool {
	name = strings.TrimPrefix(name, "public.")
	for _, t := range Tables {
		if t == name {
			return true
		}
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
