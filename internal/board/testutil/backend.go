package testutil

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/bitfantasy/agileboard/internal/board/entity"
	"github.com/bitfantasy/agileboard/internal/board/realtime"
	"github.com/bitfantasy/agileboard/internal/board/repository"
)

// Backend is an in-memory stand-in for the database, the object store and
// the change feed. Failures are injected per method name.
type Backend struct {
	mu        sync.Mutex
	users     []entity.User
	sprints   []entity.Sprint
	workItems []entity.WorkItem
	objects   map[string][]byte
	calls     []string
	failures  map[string]error
	seq       int
	clock     time.Time

	handlers []realtime.Handler
	closes   int

	// BeforeUpdate runs at the start of UpdateWorkItem, before the row changes.
	BeforeUpdate func(id string, patch entity.WorkItemPatch)
}

func NewBackend() *Backend {
	return &Backend{
		objects:  make(map[string][]byte),
		failures: make(map[string]error),
		clock:    time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

// Fail makes every later call to method return err. A nil err clears it.
func (f *Backend) Fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, method)
		return
	}
	f.failures[method] = err
}

// Calls returns how often method was called.
func (f *Backend) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == method {
			n++
		}
	}
	return n
}

// record notes the call and returns the injected failure, if any.
func (f *Backend) record(method string) error {
	f.calls = append(f.calls, method)
	return f.failures[method]
}

func (f *Backend) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

// SeedUsers, SeedSprints and SeedWorkItems place rows without recording calls.
func (f *Backend) SeedUsers(users ...entity.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, users...)
}

func (f *Backend) SeedSprints(sprints ...entity.Sprint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range sprints {
		if s.CreatedAt.IsZero() {
			s.CreatedAt = f.tick()
		}
		f.sprints = append(f.sprints, s)
	}
}

func (f *Backend) SeedWorkItems(items ...entity.WorkItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range items {
		w.ApplyDefaults()
		if w.CreatedAt.IsZero() {
			w.CreatedAt = f.tick()
		}
		f.workItems = append(f.workItems, w.Clone())
	}
}

// StoredWorkItem returns the row as the database holds it.
func (f *Backend) StoredWorkItem(id string) (entity.WorkItem, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.workItems {
		if w.ID == id {
			return w.Clone(), true
		}
	}
	return entity.WorkItem{}, false
}

// Object returns the bytes stored under bucket/path.
func (f *Backend) Object(bucket, path string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[bucket+"/"+path]
	return data, ok
}

func (f *Backend) ListUsers(ctx context.Context) ([]entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListUsers"); err != nil {
		return nil, err
	}
	out := make([]entity.User, len(f.users))
	for i, u := range f.users {
		out[i] = u.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *Backend) CreateUser(ctx context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateUser"); err != nil {
		return err
	}
	f.seq++
	u.ID = fmt.Sprintf("user-%d", f.seq)
	f.users = append(f.users, u.Clone())
	return nil
}

func (f *Backend) DeleteUser(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteUser"); err != nil {
		return err
	}
	kept := f.users[:0]
	for _, u := range f.users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	f.users = kept
	return nil
}

func (f *Backend) ListSprints(ctx context.Context) ([]entity.Sprint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListSprints"); err != nil {
		return nil, err
	}
	return append([]entity.Sprint(nil), f.sprints...), nil
}

func (f *Backend) CreateSprint(ctx context.Context, s *entity.Sprint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateSprint"); err != nil {
		return err
	}
	f.seq++
	s.ID = fmt.Sprintf("sprint-%d", f.seq)
	s.CreatedAt = f.tick()
	f.sprints = append(f.sprints, *s)
	return nil
}

func (f *Backend) UpdateSprint(ctx context.Context, id string, patch entity.SprintPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateSprint"); err != nil {
		return err
	}
	for i := range f.sprints {
		if f.sprints[i].ID == id {
			patch.Apply(&f.sprints[i])
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *Backend) DeleteSprint(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteSprint"); err != nil {
		return err
	}
	kept := f.sprints[:0]
	for _, s := range f.sprints {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	f.sprints = kept
	return nil
}

func (f *Backend) ListWorkItems(ctx context.Context) ([]entity.WorkItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListWorkItems"); err != nil {
		return nil, err
	}
	out := make([]entity.WorkItem, len(f.workItems))
	for i, w := range f.workItems {
		out[i] = w.Clone()
	}
	return out, nil
}

func (f *Backend) CreateWorkItem(ctx context.Context, w *entity.WorkItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateWorkItem"); err != nil {
		return err
	}
	for _, existing := range f.workItems {
		if existing.ID == w.ID {
			return fmt.Errorf("%w: work_items_pkey", repository.ErrDuplicate)
		}
	}
	w.CreatedAt = f.tick()
	f.workItems = append(f.workItems, w.Clone())
	return nil
}

func (f *Backend) UpdateWorkItem(ctx context.Context, id string, patch entity.WorkItemPatch) error {
	if hook := f.BeforeUpdate; hook != nil {
		hook(id, patch)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateWorkItem"); err != nil {
		return err
	}
	for i := range f.workItems {
		if f.workItems[i].ID == id {
			patch.Apply(&f.workItems[i])
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *Backend) DeleteWorkItem(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteWorkItem"); err != nil {
		return err
	}
	kept := f.workItems[:0]
	for _, w := range f.workItems {
		if w.ID != id {
			kept = append(kept, w)
		}
	}
	f.workItems = kept
	return nil
}

func (f *Backend) ClearSprint(ctx context.Context, sprintID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ClearSprint"); err != nil {
		return 0, err
	}
	var n int64
	for i := range f.workItems {
		if sid := f.workItems[i].SprintID; sid != nil && *sid == sprintID {
			f.workItems[i].SprintID = nil
			n++
		}
	}
	return n, nil
}

func (f *Backend) Upload(ctx context.Context, bucket, path string, r io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Upload"); err != nil {
		return "", err
	}
	f.objects[bucket+"/"+path] = data
	return path, nil
}

func (f *Backend) PublicURL(bucket, path string) string {
	return "https://files.test/" + bucket + "/" + path
}

// RemoveObject counts as a file store delete; the board must never call it
// when an attachment is removed.
func (f *Backend) RemoveObject(ctx context.Context, bucket, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RemoveObject")
	delete(f.objects, bucket+"/"+path)
	return nil
}

func (f *Backend) Subscribe(ctx context.Context, handle realtime.Handler) (realtime.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Subscribe"); err != nil {
		return nil, err
	}
	f.handlers = append(f.handlers, handle)
	return &fakeSubscription{backend: f}, nil
}

// Emit delivers a change to every live subscriber on the calling goroutine.
func (f *Backend) Emit(table string) {
	f.mu.Lock()
	handlers := append([]realtime.Handler(nil), f.handlers...)
	f.mu.Unlock()
	for _, h := range handlers {
		h(realtime.Change{Table: table, At: time.Now()})
	}
}

// Closes returns how many subscriptions were released.
func (f *Backend) Closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

type fakeSubscription struct {
	backend *Backend
}

func (s *fakeSubscription) Close() error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.backend.closes++
	s.backend.handlers = nil
	return nil
}
