package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/bookcaseapp/bookcase-server/internal/domain"
)

// Key prefixes for BadgerDB.
const (
	shelfPrefix = "shelf:"

	// Index key.
	shelvesByOwnerPrefix = "idx:shelves:owner:"
)

var (
	// ErrShelfNotFound is returned when a shelf is not found in the store.
	ErrShelfNotFound = errors.New("shelf not found")
	// ErrDuplicateShelf is returned when trying to create a shelf that already exists.
	ErrDuplicateShelf = errors.New("shelf already exists")
	// ErrBookNotFound is returned when a book ID is not present on a shelf.
	ErrBookNotFound = errors.New("book not found on shelf")
)

// CreateShelf creates a new shelf in the store and registers it in the
// owner index.
func (s *Store) CreateShelf(_ context.Context, shelf *domain.Shelf) error {
	key := []byte(shelfPrefix + shelf.ID)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check shelf exists: %w", err)
	}
	if exists {
		return ErrDuplicateShelf
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(shelf)
		if err != nil {
			return fmt.Errorf("marshal shelf: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}

		indexKey := []byte(shelvesByOwnerPrefix + shelf.OwnerID)
		var shelfIDs []string

		item, err := txn.Get(indexKey)
		if err == nil {
			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &shelfIDs)
			})
			if err != nil {
				return err
			}
		}

		shelfIDs = append(shelfIDs, shelf.ID)
		indexData, err := json.Marshal(shelfIDs)
		if err != nil {
			return err
		}

		return txn.Set(indexKey, indexData)
	})
	if err != nil {
		return fmt.Errorf("create shelf: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("shelf created", "id", shelf.ID, "name", shelf.Name, "owner_id", shelf.OwnerID)
	}

	s.emitChange(ChangeShelfCreated, shelf.OwnerID, shelf.ID)
	return nil
}

// GetShelf retrieves a shelf by ID.
func (s *Store) GetShelf(_ context.Context, id string) (*domain.Shelf, error) {
	key := []byte(shelfPrefix + id)

	var shelf domain.Shelf
	if err := s.get(key, &shelf); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrShelfNotFound
		}
		return nil, fmt.Errorf("get shelf: %w", err)
	}

	return &shelf, nil
}

// UpdateShelf replaces an existing shelf document in the store.
func (s *Store) UpdateShelf(_ context.Context, shelf *domain.Shelf) error {
	key := []byte(shelfPrefix + shelf.ID)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check shelf exists: %w", err)
	}
	if !exists {
		return ErrShelfNotFound
	}

	if err := s.set(key, shelf); err != nil {
		return fmt.Errorf("update shelf: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("shelf updated", "id", shelf.ID, "name", shelf.Name)
	}

	s.emitChange(ChangeShelfUpdated, shelf.OwnerID, shelf.ID)
	return nil
}

// DeleteShelf deletes a shelf and removes it from the owner index.
// Books embedded in the shelf document are deleted with it.
func (s *Store) DeleteShelf(ctx context.Context, id string) error {
	shelf, err := s.GetShelf(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		key := []byte(shelfPrefix + id)
		if err := txn.Delete(key); err != nil {
			return err
		}

		indexKey := []byte(shelvesByOwnerPrefix + shelf.OwnerID)
		var shelfIDs []string

		item, err := txn.Get(indexKey)
		if err != nil {
			return err
		}

		err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &shelfIDs)
		})
		if err != nil {
			return err
		}

		shelfIDs = slices.DeleteFunc(shelfIDs, func(sid string) bool {
			return sid == id
		})

		indexData, err := json.Marshal(shelfIDs)
		if err != nil {
			return err
		}

		return txn.Set(indexKey, indexData)
	})
	if err != nil {
		return fmt.Errorf("delete shelf: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("shelf deleted", "id", id, "owner_id", shelf.OwnerID)
	}

	s.emitChange(ChangeShelfDeleted, shelf.OwnerID, id)
	return nil
}

// ListShelvesByOwner returns all shelves belonging to the given owner,
// sorted by creation time.
func (s *Store) ListShelvesByOwner(ctx context.Context, ownerID string) ([]*domain.Shelf, error) {
	indexKey := []byte(shelvesByOwnerPrefix + ownerID)

	var shelfIDs []string

	err := s.get(indexKey, &shelfIDs)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return []*domain.Shelf{}, nil
		}
		return nil, fmt.Errorf("get shelf index: %w", err)
	}

	shelves := make([]*domain.Shelf, 0, len(shelfIDs))
	for _, id := range shelfIDs {
		shelf, err := s.GetShelf(ctx, id)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to get shelf", "id", id, "error", err)
			}
			continue
		}
		shelves = append(shelves, shelf)
	}

	domain.SortShelves(shelves)
	return shelves, nil
}

// AddBookToShelf appends a book to a shelf unless an identical entry is
// already present. Returns the updated shelf.
func (s *Store) AddBookToShelf(ctx context.Context, shelfID string, book domain.Book) (*domain.Shelf, error) {
	shelf, err := s.GetShelf(ctx, shelfID)
	if err != nil {
		return nil, err
	}

	if !shelf.AddBook(book) {
		// Shelf already holds an identical entry, nothing to write.
		return shelf, nil
	}

	if err := s.set([]byte(shelfPrefix+shelfID), shelf); err != nil {
		return nil, fmt.Errorf("add book to shelf: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("book added to shelf", "shelf_id", shelfID, "book_id", book.ID, "title", book.Title)
	}

	s.emitChange(ChangeShelfUpdated, shelf.OwnerID, shelfID)
	return shelf, nil
}

// RemoveBookFromShelf removes the entry deep-equal to book from a shelf.
// If no identical entry exists the call is a silent no-op and removed is
// false; an entry with the same ID but different content is left alone.
func (s *Store) RemoveBookFromShelf(ctx context.Context, shelfID string, book domain.Book) (removed bool, err error) {
	shelf, err := s.GetShelf(ctx, shelfID)
	if err != nil {
		return false, err
	}

	if !shelf.RemoveBookExact(book) {
		return false, nil
	}

	if err := s.set([]byte(shelfPrefix+shelfID), shelf); err != nil {
		return false, fmt.Errorf("remove book from shelf: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("book removed from shelf", "shelf_id", shelfID, "book_id", book.ID)
	}

	s.emitChange(ChangeShelfUpdated, shelf.OwnerID, shelfID)
	return true, nil
}

// ReplaceBookOnShelf replaces the entry with book's ID in place,
// preserving its position. Returns ErrBookNotFound if the shelf has no
// entry with that ID.
func (s *Store) ReplaceBookOnShelf(ctx context.Context, shelfID string, book domain.Book) (*domain.Shelf, error) {
	shelf, err := s.GetShelf(ctx, shelfID)
	if err != nil {
		return nil, err
	}

	if !shelf.ReplaceBook(book) {
		return nil, ErrBookNotFound
	}

	if err := s.set([]byte(shelfPrefix+shelfID), shelf); err != nil {
		return nil, fmt.Errorf("replace book on shelf: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("book updated on shelf", "shelf_id", shelfID, "book_id", book.ID)
	}

	s.emitChange(ChangeShelfUpdated, shelf.OwnerID, shelfID)
	return shelf, nil
}
