package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bitfantasy/agileboard/internal/board/entity"
	"github.com/bitfantasy/agileboard/internal/board/realtime"
	"go.uber.org/zap"
)

// 错误定义
var (
	ErrNotConfigured  = errors.New("backend is not configured")
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotFound       = errors.New("not found")
	ErrAlreadyStarted = errors.New("board already started")
)

// UserStore is the profiles table.
type UserStore interface {
	ListUsers(ctx context.Context) ([]entity.User, error)
	CreateUser(ctx context.Context, u *entity.User) error
	DeleteUser(ctx context.Context, id string) error
}

// SprintStore is the sprints table.
type SprintStore interface {
	ListSprints(ctx context.Context) ([]entity.Sprint, error)
	CreateSprint(ctx context.Context, s *entity.Sprint) error
	UpdateSprint(ctx context.Context, id string, patch entity.SprintPatch) error
	DeleteSprint(ctx context.Context, id string) error
}

// WorkItemStore is the work_items table.
type WorkItemStore interface {
	ListWorkItems(ctx context.Context) ([]entity.WorkItem, error)
	CreateWorkItem(ctx context.Context, w *entity.WorkItem) error
	UpdateWorkItem(ctx context.Context, id string, patch entity.WorkItemPatch) error
	DeleteWorkItem(ctx context.Context, id string) error
	ClearSprint(ctx context.Context, sprintID string) (int64, error)
}

// FileStore holds avatars and attachments.
type FileStore interface {
	Upload(ctx context.Context, bucket, path string, r io.Reader, size int64, contentType string) (string, error)
	PublicURL(bucket, path string) string
}

// ChangeFeed notifies about any write to the board tables.
type ChangeFeed interface {
	Subscribe(ctx context.Context, handle realtime.Handler) (realtime.Subscription, error)
}

// Listener is told about every new snapshot.
type Listener interface {
	SnapshotChanged(s Snapshot)
}

// Backend bundles the remote collaborators. A board built without a
// configured backend answers reads with empty collections and refuses writes.
type Backend struct {
	Users     UserStore
	Sprints   SprintStore
	WorkItems WorkItemStore
	Files     FileStore
	Feed      ChangeFeed
}

// Options tune a Board. Zero values are usable.
type Options struct {
	Configured bool
	Alerter    Alerter
	Listener   Listener
	Now        func() time.Time
	// IDReader is the randomness behind work item ids.
	IDReader io.Reader
}

// Board 看板数据同步层: the single owner of users, sprints and work items
// as seen by clients.
type Board struct {
	backend    Backend
	configured bool
	logger     *zap.Logger
	alerter    Alerter
	listener   Listener
	now        func() time.Time
	idReader   io.Reader

	mu               sync.RWMutex
	users            []entity.User
	sprints          []entity.Sprint
	workItems        []entity.WorkItem
	loading          bool
	selectedSprintID string
	version          uint64
	appliedRefresh   uint64

	// pendingSelect is a just-created sprint that refreshes started before
	// pendingSeq may not list yet.
	pendingSelect string
	pendingSeq    uint64

	refreshSeq atomic.Uint64

	lifecycle  sync.Mutex
	started    bool
	sub        realtime.Subscription
	feedCancel context.CancelFunc
	stopOnce   sync.Once
}

func NewBoard(backend Backend, opts Options, logger *zap.Logger) *Board {
	b := &Board{
		backend:    backend,
		configured: opts.Configured,
		logger:     logger.Named("board"),
		alerter:    opts.Alerter,
		listener:   opts.Listener,
		now:        opts.Now,
		idReader:   opts.IDReader,
		loading:    true,
	}
	if b.alerter == nil {
		b.alerter = nopAlerter{}
	}
	if b.now == nil {
		b.now = time.Now
	}
	if b.idReader == nil {
		b.idReader = defaultIDReader
	}
	return b
}

// Configured reports whether a backend is available.
func (b *Board) Configured() bool { return b.configured }

// Start loads the board and subscribes to remote changes. Every change
// event triggers a full Refresh.
func (b *Board) Start(ctx context.Context) error {
	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()
	if b.started {
		return ErrAlreadyStarted
	}
	b.started = true

	b.Refresh(ctx)
	if !b.configured {
		b.logger.Warn("Backend not configured, board stays empty until setup")
		return nil
	}
	if b.backend.Feed == nil {
		b.logger.Warn("No change feed, board refreshes only after local writes")
		return nil
	}

	feedCtx, cancel := context.WithCancel(context.Background())
	sub, err := b.backend.Feed.Subscribe(ctx, func(c realtime.Change) {
		b.logger.Debug("Remote change", zap.String("table", c.Table))
		b.Refresh(feedCtx)
	})
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe to changes: %w", err)
	}
	b.sub = sub
	b.feedCancel = cancel
	return nil
}

// Stop releases the change subscription. Only the first call has an effect.
func (b *Board) Stop() {
	b.stopOnce.Do(func() {
		b.lifecycle.Lock()
		defer b.lifecycle.Unlock()
		if b.feedCancel != nil {
			b.feedCancel()
		}
		if b.sub != nil {
			if err := b.sub.Close(); err != nil {
				b.logger.Warn("Close change subscription failed", zap.Error(err))
			}
			b.sub = nil
		}
	})
}

// Refresh reloads all three collections concurrently. A failed query is
// logged and leaves its collection as it was. Loading is cleared at the end
// but never set here. The returned error joins the query failures.
func (b *Board) Refresh(ctx context.Context) error {
	if !b.configured {
		b.mu.Lock()
		b.loading = false
		b.version++
		b.mu.Unlock()
		b.notify()
		return nil
	}

	seq := b.refreshSeq.Add(1)

	var (
		wg                             sync.WaitGroup
		users                          []entity.User
		sprints                        []entity.Sprint
		items                          []entity.WorkItem
		usersErr, sprintsErr, itemsErr error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		users, usersErr = b.backend.Users.ListUsers(ctx)
	}()
	go func() {
		defer wg.Done()
		sprints, sprintsErr = b.backend.Sprints.ListSprints(ctx)
	}()
	go func() {
		defer wg.Done()
		items, itemsErr = b.backend.WorkItems.ListWorkItems(ctx)
	}()
	wg.Wait()

	b.mu.Lock()
	if seq > b.appliedRefresh {
		b.appliedRefresh = seq
		if usersErr == nil {
			b.users = users
		}
		if sprintsErr == nil {
			b.sprints = sprints
			b.reconcileSelectionLocked(seq)
		}
		if itemsErr == nil {
			for i := range items {
				items[i].ApplyDefaults()
			}
			b.workItems = items
		}
	} else {
		b.logger.Debug("Dropping stale refresh", zap.Uint64("seq", seq))
	}
	b.loading = false
	b.version++
	b.mu.Unlock()

	var errs []error
	for _, q := range []struct {
		table string
		err   error
	}{{"profiles", usersErr}, {"sprints", sprintsErr}, {"work_items", itemsErr}} {
		if q.err != nil {
			b.logger.Error("Refresh query failed", zap.String("table", q.table), zap.Error(q.err))
			errs = append(errs, fmt.Errorf("load %s: %w", q.table, q.err))
		}
	}
	b.notify()
	return errors.Join(errs...)
}

// reconcileSelectionLocked keeps the selected sprint pointing at a loaded
// sprint. A vanished selection falls back to the last sprint. With nothing
// selected the first Active sprint wins, else the last one. A pending
// selection survives refreshes that started before its sprint was inserted.
func (b *Board) reconcileSelectionLocked(seq uint64) {
	if b.pendingSelect != "" {
		if seq > b.pendingSeq {
			b.pendingSelect = ""
		} else if b.selectedSprintID == b.pendingSelect {
			return
		}
	}
	if len(b.sprints) == 0 {
		b.selectedSprintID = ""
		return
	}
	last := b.sprints[len(b.sprints)-1].ID
	if b.selectedSprintID != "" {
		if indexOfSprint(b.sprints, b.selectedSprintID) < 0 {
			b.selectedSprintID = last
		}
		return
	}
	for _, s := range b.sprints {
		if s.Status == entity.SprintActive {
			b.selectedSprintID = s.ID
			return
		}
	}
	b.selectedSprintID = last
}

// SelectSprint makes id the current sprint. An empty id clears the selection.
func (b *Board) SelectSprint(id string) error {
	b.mu.Lock()
	if id != "" && indexOfSprint(b.sprints, id) < 0 {
		b.mu.Unlock()
		return fmt.Errorf("sprint %s: %w", id, ErrNotFound)
	}
	b.selectedSprintID = id
	b.version++
	b.mu.Unlock()
	b.notify()
	return nil
}

func (b *Board) setLoading(v bool) {
	b.mu.Lock()
	b.loading = v
	b.version++
	b.mu.Unlock()
	b.notify()
}

func (b *Board) notify() {
	if b.listener == nil {
		return
	}
	b.listener.SnapshotChanged(b.Snapshot())
}

// refreshAfter reloads after a write. Its errors are already logged.
func (b *Board) refreshAfter(ctx context.Context) {
	_ = b.Refresh(ctx)
}

func (b *Board) requireConfigured() error {
	if !b.configured {
		return ErrNotConfigured
	}
	return nil
}

func indexOfSprint(sprints []entity.Sprint, id string) int {
	for i := range sprints {
		if sprints[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfWorkItem(items []entity.WorkItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
