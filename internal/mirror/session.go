package mirror

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bookcaseapp/bookcase-server/internal/domain"
	apperrors "github.com/bookcaseapp/bookcase-server/internal/errors"
)

// Mutator applies shelf mutations on behalf of a session. All writes go
// straight through to the store; the session never patches its mirror
// locally and instead waits for the resulting snapshot.
type Mutator interface {
	CreateShelf(ctx context.Context, ownerID, name string) (*domain.Shelf, error)
	DeleteShelf(ctx context.Context, ownerID, shelfID string) error
	AddBook(ctx context.Context, ownerID, shelfID string, book domain.Book) (*domain.Shelf, error)
	RemoveBook(ctx context.Context, ownerID, shelfID string, book domain.Book) (bool, error)
	UpdateBook(ctx context.Context, ownerID, shelfID string, book domain.Book) (*domain.Shelf, error)
}

// Session tracks the signed-in user's live shelf mirror. It owns at most
// one hub subscription at a time: signing in opens one, switching users
// swaps it, signing out closes it and clears the mirror.
type Session struct {
	hub     *Hub
	mutator Mutator
	logger  *slog.Logger

	mu      sync.RWMutex
	userID  string
	sub     *Subscription
	current []*domain.Shelf
}

// NewSession creates a session with no signed-in user.
func NewSession(hub *Hub, mutator Mutator, logger *slog.Logger) *Session {
	return &Session{
		hub:     hub,
		mutator: mutator,
		logger:  logger,
	}
}

// SetUser switches the session to userID, replacing any previous
// subscription. The mirror is primed with the user's current shelves
// before SetUser returns. An empty userID is equivalent to Clear.
func (s *Session) SetUser(ctx context.Context, userID string) error {
	if userID == "" {
		s.Clear()
		return nil
	}

	s.mu.Lock()
	if s.userID == userID {
		s.mu.Unlock()
		return nil
	}
	old := s.sub
	s.userID = ""
	s.sub = nil
	s.current = nil
	s.mu.Unlock()

	if old != nil {
		s.hub.Unsubscribe(old.ID)
	}

	sub, err := s.hub.Subscribe(ctx, userID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.userID = userID
	s.sub = sub
	s.mu.Unlock()

	// Drain the initial snapshot synchronously so Current is live
	// immediately, then follow the feed in the background.
	s.consume(sub, <-sub.Snapshots)
	go s.follow(sub)

	return nil
}

// Clear signs the session out: the subscription is closed and the mirror
// emptied.
func (s *Session) Clear() {
	s.mu.Lock()
	old := s.sub
	s.userID = ""
	s.sub = nil
	s.current = nil
	s.mu.Unlock()

	if old != nil {
		s.hub.Unsubscribe(old.ID)
	}
}

// follow applies snapshots until the subscription is closed.
func (s *Session) follow(sub *Subscription) {
	for snapshot := range sub.Snapshots {
		s.consume(sub, snapshot)
	}
}

// consume installs a snapshot unless the session has moved on to a
// different subscription in the meantime.
func (s *Session) consume(sub *Subscription, snapshot []*domain.Shelf) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != sub {
		return
	}
	s.current = snapshot
}

// UserID returns the signed-in user, or empty when signed out.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Current returns the mirror's latest snapshot, sorted by shelf creation
// time. Signed out, it returns nil.
func (s *Session) Current() []*domain.Shelf {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	out := make([]*domain.Shelf, len(s.current))
	copy(out, s.current)
	return out
}

// Shelf returns the mirrored shelf with the given ID.
func (s *Session) Shelf(shelfID string) (*domain.Shelf, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, shelf := range s.current {
		if shelf.ID == shelfID {
			return shelf, true
		}
	}
	return nil, false
}

// signedIn returns the session owner or an error when signed out.
func (s *Session) signedIn() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.userID == "" {
		return "", apperrors.Unauthorized("no user signed in")
	}
	return s.userID, nil
}

// CreateShelf creates a shelf for the signed-in user.
func (s *Session) CreateShelf(ctx context.Context, name string) (*domain.Shelf, error) {
	ownerID, err := s.signedIn()
	if err != nil {
		return nil, err
	}
	return s.mutator.CreateShelf(ctx, ownerID, name)
}

// DeleteShelf deletes one of the signed-in user's shelves along with the
// books on it.
func (s *Session) DeleteShelf(ctx context.Context, shelfID string) error {
	ownerID, err := s.signedIn()
	if err != nil {
		return err
	}
	return s.mutator.DeleteShelf(ctx, ownerID, shelfID)
}

// AddBook adds a book to one of the signed-in user's shelves.
func (s *Session) AddBook(ctx context.Context, shelfID string, book domain.Book) (*domain.Shelf, error) {
	ownerID, err := s.signedIn()
	if err != nil {
		return nil, err
	}
	return s.mutator.AddBook(ctx, ownerID, shelfID, book)
}

// RemoveBook removes a book from a shelf by ID. The full entry is read
// from the mirror and removed only if the stored copy still matches it;
// a book edited concurrently is left in place. Unknown shelf or book IDs
// are silent no-ops, matching the underlying removal semantics.
func (s *Session) RemoveBook(ctx context.Context, shelfID, bookID string) error {
	ownerID, err := s.signedIn()
	if err != nil {
		return err
	}

	shelf, ok := s.Shelf(shelfID)
	if !ok {
		s.logger.Debug("remove skipped, shelf not in mirror",
			slog.String("shelf_id", shelfID))
		return nil
	}
	book, ok := shelf.FindBook(bookID)
	if !ok {
		s.logger.Debug("remove skipped, book not in mirror",
			slog.String("shelf_id", shelfID),
			slog.String("book_id", bookID))
		return nil
	}

	removed, err := s.mutator.RemoveBook(ctx, ownerID, shelfID, book)
	if err != nil {
		return err
	}
	if !removed {
		s.logger.Debug("remove was a no-op, stored book no longer matches",
			slog.String("shelf_id", shelfID),
			slog.String("book_id", bookID))
	}
	return nil
}

// UpdateBook replaces a book's stored entry with the given one.
func (s *Session) UpdateBook(ctx context.Context, shelfID string, book domain.Book) (*domain.Shelf, error) {
	ownerID, err := s.signedIn()
	if err != nil {
		return nil, err
	}
	return s.mutator.UpdateBook(ctx, ownerID, shelfID, book)
}
