// Package views computes derived views over the current shelf state:
// cross-shelf search and filtered listings. Everything here is a pure
// function of its inputs, safe to recompute on every render, and nothing
// is ever persisted.
package views

import (
	"strings"

	"github.com/bookcaseapp/bookcase-server/internal/domain"
)

// SearchResult is a book annotated with its originating shelf for display.
type SearchResult struct {
	domain.Book
	ShelfID   string `json:"shelf_id"`
	ShelfName string `json:"shelf_name"`
}

// Search scans every book across all shelves for a case-insensitive substring
// match against title, author, description, or any tag. Results follow
// natural shelf/book iteration order. An empty query yields no results, not
// all books. Display caps (e.g. top 10) are the consumer's concern.
func Search(query string, shelves []*domain.Shelf) []SearchResult {
	if query == "" {
		return nil
	}
	needle := strings.ToLower(query)

	var results []SearchResult
	for _, shelf := range shelves {
		for _, book := range shelf.Books {
			if bookMatches(book, needle) {
				results = append(results, SearchResult{
					Book:      book,
					ShelfID:   shelf.ID,
					ShelfName: shelf.Name,
				})
			}
		}
	}
	return results
}

func bookMatches(book domain.Book, needle string) bool {
	if strings.Contains(strings.ToLower(book.Title), needle) ||
		strings.Contains(strings.ToLower(book.Author), needle) ||
		strings.Contains(strings.ToLower(book.Description), needle) {
		return true
	}
	for _, tag := range book.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}
