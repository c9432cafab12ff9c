package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medchain/inventory-console/internal/metrics"
	"github.com/medchain/inventory-console/internal/model"
)

// Op identifies the kind of mutation reported to watchers.
type Op string

const (
	OpAdded     Op = "added"
	OpRead      Op = "read"
	OpDismissed Op = "dismissed"
	OpReplaced  Op = "replaced"
)

// Change describes a single applied mutation. For OpReplaced,
// Notification is zero and Count holds the new length.
type Change struct {
	Op           Op
	Notification model.Notification
	Count        int
}

// Dismisser is the backend half of a dismiss.
type Dismisser interface {
	DismissAlert(ctx context.Context, alertID string) error
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithDismisser sets the backend that dismisses are mirrored to.
func WithDismisser(d Dismisser) StoreOption {
	return func(s *Store) { s.backend = d }
}

// WithStoreClock overrides the clock used to stamp published notifications.
func WithStoreClock(c Clock) StoreOption {
	return func(s *Store) { s.clock = c }
}

// Store is the shared, ordered (newest first) notification collection.
// One Store is built at startup and handed to every consumer.
//
// Every mutation is applied and then reported to watchers before the
// next mutation starts, so watchers observe changes in mutation order.
// Watchers may read the store but must not mutate it.
type Store struct {
	emitMu sync.Mutex

	mu        sync.RWMutex
	items     []model.Notification
	dismissed map[string]struct{}

	watchMu   sync.Mutex
	watchers  map[int]func(Change)
	nextWatch int

	backend Dismisser
	clock   Clock
	logger  *zap.Logger
	tasks   sync.WaitGroup
}

// NewStore creates an empty Store.
func NewStore(logger *zap.Logger, opts ...StoreOption) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		dismissed: make(map[string]struct{}),
		watchers:  make(map[int]func(Change)),
		clock:     RealClock(),
		logger:    logger.Named("store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewID returns a fresh notification id.
func NewID() string {
	return "notification_" + uuid.NewString()
}

// Watch registers fn to be called after every mutation. The returned
// function unregisters it.
func (s *Store) Watch(fn func(Change)) (cancel func()) {
	s.watchMu.Lock()
	id := s.nextWatch
	s.nextWatch++
	s.watchers[id] = fn
	s.watchMu.Unlock()

	return func() {
		s.watchMu.Lock()
		delete(s.watchers, id)
		s.watchMu.Unlock()
	}
}

// settle waits out any emission in progress. Watchers removed before
// settle are never called afterwards.
func (s *Store) settle() {
	s.emitMu.Lock()
	s.emitMu.Unlock()
}

func (s *Store) emit(c Change) {
	metrics.SetUnread(s.UnreadCount())

	s.watchMu.Lock()
	fns := make([]func(Change), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.watchMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

// Add inserts n at the head of the collection. An entry already holding
// n.ID is replaced, so ids stay unique. Ids that were dismissed are never
// reused and Add reports false for them. An empty id is replaced by a
// generated one.
func (s *Store) Add(n model.Notification) bool {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	if n.ID == "" {
		n.ID = NewID()
	}

	s.mu.Lock()
	if _, gone := s.dismissed[n.ID]; gone {
		s.mu.Unlock()
		s.logger.Debug("ignoring dismissed id", zap.String("id", n.ID))
		return false
	}
	next := make([]model.Notification, 0, len(s.items)+1)
	next = append(next, n)
	for _, existing := range s.items {
		if existing.ID != n.ID {
			next = append(next, existing)
		}
	}
	s.items = next
	s.mu.Unlock()

	s.emit(Change{Op: OpAdded, Notification: n})
	return true
}

// Publish creates a locally initiated notification from d: the store
// assigns a fresh id, stamps the current time and marks it unread.
func (s *Store) Publish(d model.Draft) model.Notification {
	n := model.Notification{
		ID:        NewID(),
		Kind:      d.Kind,
		Title:     d.Title,
		Message:   d.Message,
		CreatedAt: s.clock.Now(),
		Severity:  d.Severity,
		ActionURL: d.ActionURL,
		ItemID:    d.ItemID,
	}
	if n.Kind == "" {
		n.Kind = model.KindSystem
	}
	if n.Severity == "" {
		n.Severity = model.SeverityMedium
	}
	s.Add(n)
	return n
}

// MarkRead sets the read flag of every entry with the given id. It
// reports whether an unread entry was found; an absent id is a no-op.
func (s *Store) MarkRead(id string) bool {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	var (
		n     model.Notification
		found bool
	)
	for i := range s.items {
		if s.items[i].ID == id && !s.items[i].Read {
			s.items[i].Read = true
			n, found = s.items[i], true
		}
	}
	s.mu.Unlock()

	if !found {
		return false
	}
	s.emit(Change{Op: OpRead, Notification: n})
	return true
}

// MarkAllRead marks every entry read and returns how many changed.
func (s *Store) MarkAllRead() int {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	var changed []model.Notification
	for i := range s.items {
		if !s.items[i].Read {
			s.items[i].Read = true
			changed = append(changed, s.items[i])
		}
	}
	s.mu.Unlock()

	for _, n := range changed {
		s.emit(Change{Op: OpRead, Notification: n})
	}
	return len(changed)
}

// Dismiss removes every entry with the given id immediately and
// unconditionally, then mirrors the dismiss to the backend in the
// background. The returned channel yields the backend result exactly
// once and is then closed; callers may ignore it. Backend failures are
// logged and never undo the local removal.
func (s *Store) Dismiss(ctx context.Context, id string) <-chan error {
	s.emitMu.Lock()
	s.mu.Lock()
	s.dismissed[id] = struct{}{}
	var (
		removed model.Notification
		found   bool
	)
	kept := make([]model.Notification, 0, len(s.items))
	for _, n := range s.items {
		if n.ID == id {
			if !found {
				removed, found = n, true
			}
			continue
		}
		kept = append(kept, n)
	}
	if found {
		s.items = kept
	}
	s.mu.Unlock()
	if found {
		s.emit(Change{Op: OpDismissed, Notification: removed})
	}
	s.emitMu.Unlock()

	result := make(chan error, 1)
	if s.backend == nil {
		result <- nil
		close(result)
		return result
	}

	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		defer close(result)

		err := s.backend.DismissAlert(ctx, id)
		metrics.RecordDismiss(err)
		if err != nil {
			s.logger.Warn("backend dismiss failed, removed locally",
				zap.String("id", id), zap.Error(err))
			result <- fmt.Errorf("dismissing %s on backend: %w", id, err)
			return
		}
		s.logger.Debug("backend dismiss ok", zap.String("id", id))
		result <- nil
	}()
	return result
}

// Wait blocks until every in-flight backend dismiss has finished.
func (s *Store) Wait() {
	s.tasks.Wait()
}

// Dismissed reports whether id has been dismissed in this session.
func (s *Store) Dismissed(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.dismissed[id]
	return ok
}

// ReplaceAll discards the current collection and installs list, order
// preserved. Dismissed ids are dropped and only the first entry for a
// repeated id is kept; both checks happen under the same lock as the
// install, so a dismiss is never undone by a snapshot taken before it.
// It returns the number of entries installed.
func (s *Store) ReplaceAll(list []model.Notification) int {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	next := make([]model.Notification, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, n := range list {
		if _, gone := s.dismissed[n.ID]; gone {
			continue
		}
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		next = append(next, n)
	}
	s.items = next
	s.mu.Unlock()

	s.emit(Change{Op: OpReplaced, Count: len(next)})
	return len(next)
}

// UnreadCount counts unread entries. It is derived on every call.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.items {
		if !n.Read {
			count++
		}
	}
	return count
}

// List returns a copy of the collection, newest first.
func (s *Store) List() []model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Notification, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Get returns the entry with the given id.
func (s *Store) Get(id string) (model.Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexLocked(id); idx >= 0 {
		return s.items[idx], true
	}
	return model.Notification{}, false
}

func (s *Store) indexLocked(id string) int {
	for i, n := range s.items {
		if n.ID == id {
			return i
		}
	}
	return -1
}
