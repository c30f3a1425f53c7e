// Package mirror keeps live, ordered copies of each owner's shelves in
// sync with the store. The hub listens for committed shelf changes and
// pushes full snapshots to subscribers; a session wraps one subscription
// for the currently signed-in user.
package mirror

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bookcaseapp/bookcase-server/internal/domain"
	"github.com/bookcaseapp/bookcase-server/internal/id"
	"github.com/bookcaseapp/bookcase-server/internal/store"
)

// ShelfLister reads an owner's shelves back from the store.
// *store.Store satisfies this.
type ShelfLister interface {
	ListShelvesByOwner(ctx context.Context, ownerID string) ([]*domain.Shelf, error)
}

// Subscription is one live feed of an owner's shelf snapshots.
type Subscription struct {
	ConnectedAt time.Time
	Snapshots   chan []*domain.Shelf
	Done        chan struct{}
	ID          string
	OwnerID     string
}

// Hub fans out shelf snapshots to subscribers. Whenever a shelf change
// is committed it re-reads the affected owner's shelves and delivers the
// full sorted set, never a delta.
type Hub struct {
	lister  ShelfLister
	clients map[string]*Subscription
	changes chan store.Change
	logger  *slog.Logger
	wg      sync.WaitGroup
	mu      sync.RWMutex

	// Shutdown state - protected by shutdownMu
	shutdownMu sync.RWMutex
	shutdown   bool
}

// NewHub creates a new snapshot hub reading from lister.
func NewHub(lister ShelfLister, logger *slog.Logger) *Hub {
	return &Hub{
		lister:  lister,
		clients: make(map[string]*Subscription),
		changes: make(chan store.Change, 1000), // Buffer 1000 changes
		logger:  logger,
	}
}

// SetLister attaches the snapshot source. The hub is the store's event
// emitter and the store is the hub's lister, so one side is wired after
// construction. Must be called before Start or Subscribe.
func (h *Hub) SetLister(lister ShelfLister) {
	h.lister = lister
}

// Start begins the snapshot fan-out loop.
// This should be called once at server startup in a goroutine.
func (h *Hub) Start(ctx context.Context) {
	h.wg.Add(1)
	defer h.wg.Done()

	h.logger.Info("mirror hub starting")

	for {
		select {
		case change := <-h.changes:
			h.fanOut(ctx, change.OwnerID)

		case <-ctx.Done():
			h.logger.Info("mirror hub stopping")
			h.closeAllSubscriptions()
			return
		}
	}
}

// Shutdown gracefully shuts down the hub.
// It stops accepting new changes, drains pending ones, and closes all
// subscriptions.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.logger.Info("mirror hub shutdown initiated")

	// Mark as shutdown AND close channel atomically while holding lock.
	// This prevents race with Emit() which holds read lock during send.
	h.shutdownMu.Lock()
	h.shutdown = true
	close(h.changes)
	h.shutdownMu.Unlock()

	done := make(chan struct{})
	go func() {
		for change := range h.changes {
			h.fanOut(ctx, change.OwnerID)
		}
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info("mirror changes drained successfully")
	case <-ctx.Done():
		h.logger.Warn("mirror change drain timeout, some snapshots may be lost")
	}

	h.wg.Wait()

	h.logger.Info("mirror hub shutdown complete")
	return nil
}

// Emit queues a committed shelf change for fan-out.
// This implements the store.EventEmitter interface; events that are not
// shelf changes are ignored.
func (h *Hub) Emit(event any) {
	change, ok := event.(store.Change)
	if !ok {
		return
	}

	// Hold read lock through the entire send operation.
	// This prevents race with Shutdown() which holds write lock when closing channel.
	h.shutdownMu.RLock()
	defer h.shutdownMu.RUnlock()

	if h.shutdown {
		return
	}

	select {
	case h.changes <- change:
		// Change queued for fan-out.
	default:
		h.logger.Error("mirror change channel full, dropping change",
			slog.String("change_type", string(change.Type)),
			slog.String("owner_id", change.OwnerID))
	}
}

// fanOut re-reads the owner's shelves and delivers the snapshot to every
// subscription for that owner.
func (h *Hub) fanOut(ctx context.Context, ownerID string) {
	shelves, err := h.lister.ListShelvesByOwner(ctx, ownerID)
	if err != nil {
		h.logger.Error("failed to read shelves for snapshot",
			slog.String("owner_id", ownerID),
			slog.Any("error", err))
		return
	}

	var delivered, dropped int

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.clients {
		if sub.OwnerID != ownerID {
			continue
		}

		if h.deliver(sub, shelves) {
			delivered++
		} else {
			dropped++
		}
	}

	h.logger.Debug("snapshot fan-out",
		slog.String("owner_id", ownerID),
		slog.Int("shelves", len(shelves)),
		slog.Int("delivered", delivered),
		slog.Int("dropped", dropped))
}

// deliver sends a snapshot without blocking. Only the latest snapshot
// matters, so when the subscriber's buffer is full the oldest queued
// snapshot is discarded to make room.
func (h *Hub) deliver(sub *Subscription, shelves []*domain.Shelf) bool {
	select {
	case sub.Snapshots <- shelves:
		return true
	default:
	}

	select {
	case <-sub.Snapshots:
	default:
	}

	select {
	case sub.Snapshots <- shelves:
		return true
	default:
		h.logger.Warn("dropped snapshot for slow subscriber",
			slog.String("subscription_id", sub.ID),
			slog.String("owner_id", sub.OwnerID))
		return false
	}
}

// Subscribe registers a new subscription for ownerID's shelves. The
// current snapshot is delivered on the channel before Subscribe returns,
// so subscribers always start from the live state.
func (h *Hub) Subscribe(ctx context.Context, ownerID string) (*Subscription, error) {
	subID, err := id.Generate("sub")
	if err != nil {
		return nil, err
	}

	shelves, err := h.lister.ListShelvesByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	sub := &Subscription{
		ID:          subID,
		OwnerID:     ownerID,
		Snapshots:   make(chan []*domain.Shelf, 16), // Buffer snapshots per subscriber
		Done:        make(chan struct{}),
		ConnectedAt: time.Now(),
	}
	sub.Snapshots <- shelves

	h.mu.Lock()
	h.clients[sub.ID] = sub
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("mirror subscription opened",
		slog.String("subscription_id", subID),
		slog.String("owner_id", ownerID),
		slog.Int("total_subscriptions", total))
	return sub, nil
}

// Unsubscribe removes a subscription and closes its channels.
func (h *Hub) Unsubscribe(subID string) {
	h.mu.Lock()
	sub, ok := h.clients[subID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, subID)
	total := len(h.clients)
	h.mu.Unlock()

	close(sub.Done)
	close(sub.Snapshots)

	h.logger.Info("mirror subscription closed",
		slog.String("subscription_id", subID),
		slog.Duration("duration", time.Since(sub.ConnectedAt)),
		slog.Int("total_subscriptions", total))
}

// SubscriberCount returns the number of open subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) closeAllSubscriptions() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, sub := range h.clients {
		close(sub.Done)
		close(sub.Snapshots)
		delete(h.clients, id)
	}
}
