package domain

import "slices"

// Shelf is a named, ordered collection of Books owned by one user.
// Each shelf is a single document: books are embedded as an ordered list,
// not normalized into separate records. Deleting a shelf deletes its books.
type Shelf struct {
	ID        string `json:"id"`      // Store-assigned
	OwnerID   string `json:"owner_id"`
	Name      string `json:"name"`
	Books     []Book `json:"books"`
	CreatedAt string `json:"created_at"`
}

// AddBook adds a book entry to the shelf with set-union semantics: an entry
// that compares Equal to one already present is not added twice. In practice
// uniqueness is guaranteed by the client-generated book ID.
func (s *Shelf) AddBook(book Book) bool {
	for _, existing := range s.Books {
		if existing.Equal(book) {
			return false
		}
	}
	s.Books = append(s.Books, book)
	return true
}

// RemoveBookExact removes the first entry that compares Equal to book.
// Returns false when no entry matched exactly - including the case where the
// entry was modified concurrently and its contents no longer match. That
// silent no-op is the documented behavior, not an oversight.
func (s *Shelf) RemoveBookExact(book Book) bool {
	for i, existing := range s.Books {
		if existing.Equal(book) {
			s.Books = slices.Delete(s.Books, i, i+1)
			return true
		}
	}
	return false
}

// ReplaceBook replaces the entry whose ID matches book.ID in place,
// preserving list order. Returns false if no entry has that ID.
func (s *Shelf) ReplaceBook(book Book) bool {
	for i, existing := range s.Books {
		if existing.ID == book.ID {
			s.Books[i] = book
			return true
		}
	}
	return false
}

// FindBook returns the entry with the given ID.
func (s *Shelf) FindBook(bookID string) (Book, bool) {
	for _, book := range s.Books {
		if book.ID == bookID {
			return book, true
		}
	}
	return Book{}, false
}

// ContainsBook reports whether an entry with the given ID is present.
func (s *Shelf) ContainsBook(bookID string) bool {
	_, ok := s.FindBook(bookID)
	return ok
}

// SortShelves orders shelves by CreatedAt ascending using plain string
// comparison, with ID as a tiebreaker so the order is fully deterministic.
// Subscription snapshots apply this before delivery.
func SortShelves(shelves []*Shelf) {
	slices.SortFunc(shelves, func(a, b *Shelf) int {
		if a.CreatedAt != b.CreatedAt {
			if a.CreatedAt < b.CreatedAt {
				return -1
			}
			return 1
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
}
