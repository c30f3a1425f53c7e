package views

import "github.com/bookcaseapp/bookcase-server/internal/domain"

// RatingFilter selects books by rating band.
type RatingFilter string

const (
	// RatingAll matches any rating.
	RatingAll RatingFilter = "all"
	// RatingThreeAndUp keeps books rated 3.0 or higher.
	RatingThreeAndUp RatingFilter = "3-and-up"
	// RatingUnderThree keeps books rated below 3.0; unrated counts as 0.
	RatingUnderThree RatingFilter = "under-3"
)

// StatusFilter selects books by reading status.
type StatusFilter string

const (
	// StatusAll matches any status.
	StatusAll StatusFilter = "all"
	// StatusCompleted keeps finished books only.
	StatusCompleted StatusFilter = "completed"
	// StatusIncomplete keeps unfinished books only.
	StatusIncomplete StatusFilter = "incomplete"
)

// FilterState is the process-local view state: reset on reload, never persisted.
type FilterState struct {
	Rating RatingFilter `json:"rating"`
	Status StatusFilter `json:"status"`
}

// DefaultFilterState matches everything.
func DefaultFilterState() FilterState {
	return FilterState{Rating: RatingAll, Status: StatusAll}
}

// Matches reports whether a book satisfies both predicates.
func (f FilterState) Matches(book domain.Book) bool {
	switch f.Status {
	case StatusCompleted:
		if book.Status != domain.StatusCompleted {
			return false
		}
	case StatusIncomplete:
		if book.Status == domain.StatusCompleted {
			return false
		}
	}

	switch f.Rating {
	case RatingThreeAndUp:
		return book.Rating >= 3
	case RatingUnderThree:
		return book.Rating < 3
	}
	return true
}

// Filter returns shelves whose book lists are reduced to entries satisfying
// the filter state. Shelf metadata is untouched; the input is never mutated.
func Filter(shelves []*domain.Shelf, state FilterState) []*domain.Shelf {
	filtered := make([]*domain.Shelf, len(shelves))
	for i, shelf := range shelves {
		books := make([]domain.Book, 0, len(shelf.Books))
		for _, book := range shelf.Books {
			if state.Matches(book) {
				books = append(books, book)
			}
		}
		copied := *shelf
		copied.Books = books
		filtered[i] = &copied
	}
	return filtered
}
