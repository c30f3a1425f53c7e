package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookcaseapp/bookcase-server/internal/domain"
)

// recordingEmitter captures emitted events for assertions.
type recordingEmitter struct {
	mu     sync.Mutex
	events []any
}

func (r *recordingEmitter) Emit(event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingEmitter) changes() []Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Change, 0, len(r.events))
	for _, e := range r.events {
		if c, ok := e.(Change); ok {
			out = append(out, c)
		}
	}
	return out
}

func setupTestStore(t *testing.T) (*Store, *recordingEmitter, func()) {
	t.Helper()

	// Create temp directory for test database
	tmpDir, err := os.MkdirTemp("", "bookcase-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	emitter := &recordingEmitter{}
	s, err := New(dbPath, nil, emitter)
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return s, emitter, cleanup
}

func testShelf(id, ownerID, name string) *domain.Shelf {
	return &domain.Shelf{
		ID:        id,
		OwnerID:   ownerID,
		Name:      name,
		Books:     []domain.Book{},
		CreatedAt: domain.NowTimestamp(),
	}
}

func TestCreateShelf(t *testing.T) {
	s, emitter, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	shelf := testShelf("shelf-001", "user-001", "Fiction")
	err := s.CreateShelf(ctx, shelf)
	require.NoError(t, err)

	retrieved, err := s.GetShelf(ctx, shelf.ID)
	require.NoError(t, err)
	assert.Equal(t, shelf.ID, retrieved.ID)
	assert.Equal(t, shelf.OwnerID, retrieved.OwnerID)
	assert.Equal(t, shelf.Name, retrieved.Name)
	assert.Empty(t, retrieved.Books)

	changes := emitter.changes()
	require.Len(t, changes, 1)
	assert.Equal(t, ChangeShelfCreated, changes[0].Type)
	assert.Equal(t, "user-001", changes[0].OwnerID)
	assert.Equal(t, "shelf-001", changes[0].ShelfID)
}

func TestCreateShelf_Duplicate(t *testing.T) {
	s, _, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	shelf := testShelf("shelf-001", "user-001", "Fiction")
	require.NoError(t, s.CreateShelf(ctx, shelf))

	err := s.CreateShelf(ctx, shelf)
	assert.ErrorIs(t, err, ErrDuplicateShelf)
}

func TestGetShelf_NotFound(t *testing.T) {
	s, _, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := s.GetShelf(context.Background(), "shelf-missing")
	assert.ErrorIs(t, err, ErrShelfNotFound)
}

func TestDeleteShelf(t *testing.T) {
	s, emitter, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	shelf := testShelf("shelf-001", "user-001", "Fiction")
	require.NoError(t, s.CreateShelf(ctx, shelf))

	err := s.DeleteShelf(ctx, shelf.ID)
	require.NoError(t, err)

	_, err = s.GetShelf(ctx, shelf.ID)
	assert.ErrorIs(t, err, ErrShelfNotFound)

	// Owner index no longer lists the shelf.
	shelves, err := s.ListShelvesByOwner(ctx, "user-001")
	require.NoError(t, err)
	assert.Empty(t, shelves)

	changes := emitter.changes()
	require.Len(t, changes, 2)
	assert.Equal(t, ChangeShelfDeleted, changes[1].Type)
}

func TestDeleteShelf_NotFound(t *testing.T) {
	s, _, cleanup := setupTestStore(t)
	defer cleanup()

	err := s.DeleteShelf(context.Background(), "shelf-missing")
	assert.ErrorIs(t, err, ErrShelfNotFound)
}

func TestListShelvesByOwner_SortedByCreation(t *testing.T) {
	s, _, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	older := testShelf("shelf-b", "user-001", "Older")
	older.CreatedAt = "2024-01-01T00:00:00.000Z"
	newer := testShelf("shelf-a", "user-001", "Newer")
	newer.CreatedAt = "2024-06-01T00:00:00.000Z"

	// Insert newest first to prove ordering comes from CreatedAt.
	require.NoError(t, s.CreateShelf(ctx, newer))
	require.NoError(t, s.CreateShelf(ctx, older))

	shelves, err := s.ListShelvesByOwner(ctx, "user-001")
	require.NoError(t, err)
	require.Len(t, shelves, 2)
	assert.Equal(t, "shelf-b", shelves[0].ID)
	assert.Equal(t, "shelf-a", shelves[1].ID)
}

func TestListShelvesByOwner_ScopedToOwner(t *testing.T) {
	s, _, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, s.CreateShelf(ctx, testShelf("shelf-001", "user-001", "Mine")))
	require.NoError(t, s.CreateShelf(ctx, testShelf("shelf-002", "user-002", "Theirs")))

	shelves, err := s.ListShelvesByOwner(ctx, "user-001")
	require.NoError(t, err)
	require.Len(t, shelves, 1)
	assert.Equal(t, "shelf-001", shelves[0].ID)
}

func TestListShelvesByOwner_Empty(t *testing.T) {
	s, _, cleanup := setupTestStore(t)
	defer cleanup()

	shelves, err := s.ListShelvesByOwner(context.Background(), "user-unknown")
	require.NoError(t, err)
	assert.Empty(t, shelves)
}

func TestAddBookToShelf(t *testing.T) {
	s, emitter, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	shelf := testShelf("shelf-001", "user-001", "Fiction")
	require.NoError(t, s.CreateShelf(ctx, shelf))

	book := domain.Book{
		ID:        "book-001",
		Title:     "Dune",
		Author:    "Frank Herbert",
		Pages:     412,
		CreatedAt: domain.NowTimestamp(),
	}

	updated, err := s.AddBookToShelf(ctx, shelf.ID, book)
	require.NoError(t, err)
	require.Len(t, updated.Books, 1)
	assert.Equal(t, "Dune", updated.Books[0].Title)

	// Persisted, not just returned.
	retrieved, err := s.GetShelf(ctx, shelf.ID)
	require.NoError(t, err)
	require.Len(t, retrieved.Books, 1)

	changes := emitter.changes()
	require.Len(t, changes, 2)
	assert.Equal(t, ChangeShelfUpdated, changes[1].Type)
}

func TestAddBookToShelf_IdenticalEntryIgnored(t *testing.T) {
	s, emitter, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	shelf := testShelf("shelf-001", "user-001", "Fiction")
	require.NoError(t, s.CreateShelf(ctx, shelf))

	book := domain.Book{ID: "book-001", Title: "Dune", CreatedAt: "2024-01-01T00:00:00.000Z"}

	_, err := s.AddBookToShelf(ctx, shelf.ID, book)
	require.NoError(t, err)

	before := len(emitter.changes())

	updated, err := s.AddBookToShelf(ctx, shelf.ID, book)
	require.NoError(t, err)
	assert.Len(t, updated.Books, 1)

	// No write, no change event.
	assert.Len(t, emitter.changes(), before)
}

func TestRemoveBookFromShelf_ExactMatch(t *testing.T) {
	s, _, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	shelf := testShelf("shelf-001", "user-001", "Fiction")
	require.NoError(t, s.CreateShelf(ctx, shelf))

	book := domain.Book{ID: "book-001", Title: "Dune", Rating: 5}
	_, err := s.AddBookToShelf(ctx, shelf.ID, book)
	require.NoError(t, err)

	removed, err := s.RemoveBookFromShelf(ctx, shelf.ID, book)
	require.NoError(t, err)
	assert.True(t, removed)

	retrieved, err := s.GetShelf(ctx, shelf.ID)
	require.NoError(t, err)
	assert.Empty(t, retrieved.Books)
}

func TestRemoveBookFromShelf_DriftedEntryLeftAlone(t *testing.T) {
	s, emitter, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	shelf := testShelf("shelf-001", "user-001", "Fiction")
	require.NoError(t, s.CreateShelf(ctx, shelf))

	stored := domain.Book{ID: "book-001", Title: "Dune", Rating: 5}
	_, err := s.AddBookToShelf(ctx, shelf.ID, stored)
	require.NoError(t, err)

	before := len(emitter.changes())

	// Same ID, different rating: a concurrent edit happened since the
	// caller read the book. The removal must not touch the stored entry.
	stale := stored
	stale.Rating = 3

	removed, err := s.RemoveBookFromShelf(ctx, shelf.ID, stale)
	require.NoError(t, err)
	assert.False(t, removed)

	retrieved, err := s.GetShelf(ctx, shelf.ID)
	require.NoError(t, err)
	require.Len(t, retrieved.Books, 1)
	assert.Equal(t, 5, retrieved.Books[0].Rating)

	assert.Len(t, emitter.changes(), before)
}

func TestReplaceBookOnShelf(t *testing.T) {
	s, _, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	shelf := testShelf("shelf-001", "user-001", "Fiction")
	require.NoError(t, s.CreateShelf(ctx, shelf))

	first := domain.Book{ID: "book-001", Title: "Dune"}
	second := domain.Book{ID: "book-002", Title: "Hyperion"}
	_, err := s.AddBookToShelf(ctx, shelf.ID, first)
	require.NoError(t, err)
	_, err = s.AddBookToShelf(ctx, shelf.ID, second)
	require.NoError(t, err)

	edited := first
	edited.Rating = 4
	edited.Status = domain.StatusCompleted

	updated, err := s.ReplaceBookOnShelf(ctx, shelf.ID, edited)
	require.NoError(t, err)
	require.Len(t, updated.Books, 2)

	// Position preserved.
	assert.Equal(t, "book-001", updated.Books[0].ID)
	assert.Equal(t, 4, updated.Books[0].Rating)
	assert.Equal(t, domain.StatusCompleted, updated.Books[0].Status)
	assert.Equal(t, "book-002", updated.Books[1].ID)
}

func TestReplaceBookOnShelf_UnknownBook(t *testing.T) {
	s, _, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	shelf := testShelf("shelf-001", "user-001", "Fiction")
	require.NoError(t, s.CreateShelf(ctx, shelf))

	_, err := s.ReplaceBookOnShelf(ctx, shelf.ID, domain.Book{ID: "book-missing"})
	assert.ErrorIs(t, err, ErrBookNotFound)
}
