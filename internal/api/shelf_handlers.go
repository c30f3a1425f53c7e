package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookcaseapp/bookcase-server/internal/domain"
	"github.com/bookcaseapp/bookcase-server/internal/service"
)

func (s *Server) registerShelfRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listShelves",
		Method:      http.MethodGet,
		Path:        "/api/v1/shelves",
		Summary:     "List shelves",
		Description: "Returns all shelves owned by the current user, oldest first",
		Tags:        []string{"Shelves"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListShelves)

	huma.Register(s.api, huma.Operation{
		OperationID: "createShelf",
		Method:      http.MethodPost,
		Path:        "/api/v1/shelves",
		Summary:     "Create shelf",
		Description: "Creates a new empty shelf",
		Tags:        []string{"Shelves"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateShelf)

	huma.Register(s.api, huma.Operation{
		OperationID: "getShelf",
		Method:      http.MethodGet,
		Path:        "/api/v1/shelves/{id}",
		Summary:     "Get shelf",
		Description: "Returns a shelf by ID with its books",
		Tags:        []string{"Shelves"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetShelf)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteShelf",
		Method:      http.MethodDelete,
		Path:        "/api/v1/shelves/{id}",
		Summary:     "Delete shelf",
		Description: "Deletes a shelf and every book on it (owner only)",
		Tags:        []string{"Shelves"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteShelf)

	huma.Register(s.api, huma.Operation{
		OperationID: "addBookToShelf",
		Method:      http.MethodPost,
		Path:        "/api/v1/shelves/{id}/books",
		Summary:     "Add book to shelf",
		Description: "Adds a book entry to a shelf (owner only)",
		Tags:        []string{"Shelves"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddBookToShelf)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeBookFromShelf",
		Method:      http.MethodDelete,
		Path:        "/api/v1/shelves/{id}/books/{bookId}",
		Summary:     "Remove book from shelf",
		Description: "Removes a book entry from a shelf (owner only)",
		Tags:        []string{"Shelves"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveBookFromShelf)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBookOnShelf",
		Method:      http.MethodPut,
		Path:        "/api/v1/shelves/{id}/books/{bookId}",
		Summary:     "Update book on shelf",
		Description: "Replaces a book entry in place (owner only)",
		Tags:        []string{"Shelves"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateBookOnShelf)
}

// === DTOs ===

// ListShelvesInput contains parameters for listing shelves.
type ListShelvesInput struct {
	Authorization string `header:"Authorization"`
}

// ListShelvesOutput wraps the shelf list for Huma.
type ListShelvesOutput struct {
	Body struct {
		Shelves []*domain.Shelf `json:"shelves" doc:"Shelves ordered by creation time"`
	}
}

// CreateShelfRequest is the request body for creating a shelf.
type CreateShelfRequest struct {
	Name string `json:"name" doc:"Shelf name"`
}

// CreateShelfInput wraps the create shelf request for Huma.
type CreateShelfInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateShelfRequest
}

// ShelfOutput wraps a single shelf for Huma.
type ShelfOutput struct {
	Body domain.Shelf
}

// GetShelfInput contains parameters for getting a shelf.
type GetShelfInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Shelf ID"`
}

// DeleteShelfInput contains parameters for deleting a shelf.
type DeleteShelfInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Shelf ID"`
}

// AddBookInput wraps the add book request for Huma.
type AddBookInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Shelf ID"`
	Body          service.AddBookInput
}

// RemoveBookInput contains parameters for removing a book.
type RemoveBookInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Shelf ID"`
	BookID        string `path:"bookId" doc:"Book ID"`
}

// RemoveBookOutput reports whether the entry was actually removed.
type RemoveBookOutput struct {
	Body struct {
		Removed bool `json:"removed" doc:"False when the entry had drifted and was left alone"`
	}
}

// UpdateBookInput wraps the whole-entry book update for Huma.
type UpdateBookInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Shelf ID"`
	BookID        string `path:"bookId" doc:"Book ID"`
	Body          domain.Book
}

// === Handlers ===

func (s *Server) handleListShelves(ctx context.Context, _ *ListShelvesInput) (*ListShelvesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	shelves, err := s.services.Shelf.ListShelves(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &ListShelvesOutput{}
	out.Body.Shelves = shelves
	return out, nil
}

func (s *Server) handleCreateShelf(ctx context.Context, input *CreateShelfInput) (*ShelfOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	shelf, err := s.services.Shelf.CreateShelf(ctx, userID, input.Body.Name)
	if err != nil {
		return nil, err
	}
	return &ShelfOutput{Body: *shelf}, nil
}

func (s *Server) handleGetShelf(ctx context.Context, input *GetShelfInput) (*ShelfOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	shelf, err := s.services.Shelf.GetShelf(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	return &ShelfOutput{Body: *shelf}, nil
}

func (s *Server) handleDeleteShelf(ctx context.Context, input *DeleteShelfInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Shelf.DeleteShelf(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

func (s *Server) handleAddBookToShelf(ctx context.Context, input *AddBookInput) (*ShelfOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Shelf.NewBookFromInput(input.Body)
	if err != nil {
		return nil, err
	}

	shelf, err := s.services.Shelf.AddBook(ctx, userID, input.ID, book)
	if err != nil {
		return nil, err
	}
	return &ShelfOutput{Body: *shelf}, nil
}

// handleRemoveBookFromShelf resolves the book ID against the shelf's current
// contents and removes that exact entry. A concurrently edited entry no longer
// matches and is left in place, reported as removed=false.
func (s *Server) handleRemoveBookFromShelf(ctx context.Context, input *RemoveBookInput) (*RemoveBookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	shelf, err := s.services.Shelf.GetShelf(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	out := &RemoveBookOutput{}
	book, ok := shelf.FindBook(input.BookID)
	if !ok {
		return out, nil
	}

	removed, err := s.services.Shelf.RemoveBook(ctx, userID, input.ID, book)
	if err != nil {
		return nil, err
	}
	out.Body.Removed = removed
	return out, nil
}

func (s *Server) handleUpdateBookOnShelf(ctx context.Context, input *UpdateBookInput) (*ShelfOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	book := input.Body
	book.ID = input.BookID

	shelf, err := s.services.Shelf.UpdateBook(ctx, userID, input.ID, book)
	if err != nil {
		return nil, err
	}
	return &ShelfOutput{Body: *shelf}, nil
}
