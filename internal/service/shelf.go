package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/bookcaseapp/bookcase-server/internal/domain"
	domainerrors "github.com/bookcaseapp/bookcase-server/internal/errors"
	"github.com/bookcaseapp/bookcase-server/internal/id"
	"github.com/bookcaseapp/bookcase-server/internal/shelfstyle"
	"github.com/bookcaseapp/bookcase-server/internal/store"
	"github.com/bookcaseapp/bookcase-server/internal/validation"
	"github.com/bookcaseapp/bookcase-server/internal/views"
)

// ShelfService orchestrates shelf and book operations with ownership
// enforcement. It satisfies mirror.Mutator, so sessions can route their
// mutations through it.
type ShelfService struct {
	store     *store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewShelfService creates a new shelf service.
func NewShelfService(store *store.Store, validator *validation.Validator, logger *slog.Logger) *ShelfService {
	return &ShelfService{
		store:     store,
		validator: validator,
		logger:    logger,
	}
}

// AddBookInput is the user-supplied part of a new book. Everything else
// (ID, timestamp, spine fallbacks) is filled in here.
type AddBookInput struct {
	Title         string   `json:"title" validate:"required,max=500"`
	Author        string   `json:"author" validate:"required,max=500"`
	Pages         int      `json:"pages" validate:"gte=1"`
	Description   string   `json:"description" validate:"max=5000"`
	Tags          []string `json:"tags" validate:"max=20,dive,max=50"`
	Rating        float64  `json:"rating" validate:"gte=0,lte=5"`
	Status        string   `json:"status" validate:"omitempty,oneof=incomplete completed"`
	CoverColor    string   `json:"cover_color" validate:"omitempty,max=20"`
	SpineColor    string   `json:"spine_color" validate:"omitempty,max=20"`
	CoverImageURL string   `json:"cover_image_url" validate:"omitempty,url"`
	CoverBlurHash string   `json:"cover_blur_hash" validate:"omitempty,max=100"`
}

// NewBook turns validated input into a book entry with a fresh ID and
// creation timestamp.
func (in AddBookInput) NewBook() domain.Book {
	status := domain.Status(in.Status)
	if status == "" {
		status = domain.StatusIncomplete
	}

	return domain.Book{
		ID:            uuid.NewString(),
		Title:         in.Title,
		Author:        in.Author,
		Pages:         in.Pages,
		Description:   in.Description,
		Tags:          in.Tags,
		Rating:        in.Rating,
		Status:        status,
		CoverColor:    in.CoverColor,
		SpineColor:    shelfstyle.SpineColor(in.SpineColor, in.CoverColor),
		CoverImageURL: in.CoverImageURL,
		CoverBlurHash: in.CoverBlurHash,
		CreatedAt:     domain.NowTimestamp(),
	}
}

// NewBookFromInput validates user input and mints the stored entry.
func (s *ShelfService) NewBookFromInput(in AddBookInput) (domain.Book, error) {
	if err := s.validator.Validate(in); err != nil {
		return domain.Book{}, err
	}
	return in.NewBook(), nil
}

// CreateShelf creates a new empty shelf for the owner.
func (s *ShelfService) CreateShelf(ctx context.Context, ownerID, name string) (*domain.Shelf, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainerrors.Validation("shelf name cannot be empty")
	}

	shelfID, err := id.Generate("shelf")
	if err != nil {
		return nil, fmt.Errorf("generate shelf ID: %w", err)
	}

	shelf := &domain.Shelf{
		ID:        shelfID,
		OwnerID:   ownerID,
		Name:      name,
		Books:     []domain.Book{},
		CreatedAt: domain.NowTimestamp(),
	}

	if err := s.store.CreateShelf(ctx, shelf); err != nil {
		return nil, fmt.Errorf("create shelf: %w", err)
	}

	s.logger.Info("shelf created",
		"shelf_id", shelfID,
		"owner_id", ownerID,
		"name", name,
	)

	return shelf, nil
}

// DeleteShelf deletes a shelf and every book on it. Requires ownership.
func (s *ShelfService) DeleteShelf(ctx context.Context, ownerID, shelfID string) error {
	if _, err := s.ownedShelf(ctx, ownerID, shelfID); err != nil {
		return err
	}

	if err := s.store.DeleteShelf(ctx, shelfID); err != nil {
		return fmt.Errorf("delete shelf: %w", err)
	}

	s.logger.Info("shelf deleted", "shelf_id", shelfID, "owner_id", ownerID)
	return nil
}

// ListShelves returns the owner's shelves sorted by creation time.
func (s *ShelfService) ListShelves(ctx context.Context, ownerID string) ([]*domain.Shelf, error) {
	return s.store.ListShelvesByOwner(ctx, ownerID)
}

// GetShelf returns one of the owner's shelves.
func (s *ShelfService) GetShelf(ctx context.Context, ownerID, shelfID string) (*domain.Shelf, error) {
	return s.ownedShelf(ctx, ownerID, shelfID)
}

// AddBook appends a book to one of the owner's shelves. An entry
// identical to one already present is left alone.
func (s *ShelfService) AddBook(ctx context.Context, ownerID, shelfID string, book domain.Book) (*domain.Shelf, error) {
	if _, err := s.ownedShelf(ctx, ownerID, shelfID); err != nil {
		return nil, err
	}
	if err := s.checkBook(book); err != nil {
		return nil, err
	}

	shelf, err := s.store.AddBookToShelf(ctx, shelfID, book)
	if err != nil {
		return nil, fmt.Errorf("add book: %w", err)
	}

	return shelf, nil
}

// RemoveBook removes the entry deep-equal to book from the shelf.
// An entry that drifted since the caller read it stays put; removed
// reports whether anything actually came off the shelf.
func (s *ShelfService) RemoveBook(ctx context.Context, ownerID, shelfID string, book domain.Book) (bool, error) {
	if _, err := s.ownedShelf(ctx, ownerID, shelfID); err != nil {
		return false, err
	}

	removed, err := s.store.RemoveBookFromShelf(ctx, shelfID, book)
	if err != nil {
		return false, fmt.Errorf("remove book: %w", err)
	}

	if !removed {
		s.logger.Debug("remove was a no-op",
			"shelf_id", shelfID,
			"book_id", book.ID,
		)
	}
	return removed, nil
}

// UpdateBook replaces a book's stored entry wholesale, preserving its
// position on the shelf.
func (s *ShelfService) UpdateBook(ctx context.Context, ownerID, shelfID string, book domain.Book) (*domain.Shelf, error) {
	if _, err := s.ownedShelf(ctx, ownerID, shelfID); err != nil {
		return nil, err
	}
	if book.ID == "" {
		return nil, domainerrors.Validation("book id is required")
	}
	if err := s.checkBook(book); err != nil {
		return nil, err
	}

	shelf, err := s.store.ReplaceBookOnShelf(ctx, shelfID, book)
	if err != nil {
		if domainerrors.Is(err, store.ErrBookNotFound) {
			return nil, domainerrors.NotFound("book not found on shelf")
		}
		return nil, fmt.Errorf("update book: %w", err)
	}

	return shelf, nil
}

// Search scans the owner's shelves for books matching the query.
func (s *ShelfService) Search(ctx context.Context, ownerID, query string) ([]views.SearchResult, error) {
	shelves, err := s.store.ListShelvesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list shelves: %w", err)
	}
	return views.Search(query, shelves), nil
}

// Filter returns the owner's shelves with books not matching the filter
// state removed. Shelves themselves always remain.
func (s *ShelfService) Filter(ctx context.Context, ownerID string, state views.FilterState) ([]*domain.Shelf, error) {
	shelves, err := s.store.ListShelvesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list shelves: %w", err)
	}
	return views.Filter(shelves, state), nil
}

// ownedShelf fetches a shelf and verifies ownership.
func (s *ShelfService) ownedShelf(ctx context.Context, ownerID, shelfID string) (*domain.Shelf, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	shelf, err := s.store.GetShelf(ctx, shelfID)
	if err != nil {
		if domainerrors.Is(err, store.ErrShelfNotFound) {
			return nil, domainerrors.NotFound("shelf not found")
		}
		return nil, fmt.Errorf("get shelf: %w", err)
	}

	if shelf.OwnerID != ownerID {
		return nil, domainerrors.Forbidden("shelf belongs to another user")
	}

	return shelf, nil
}

// checkBook validates the parts of a book entry the store will accept
// as-is.
func (s *ShelfService) checkBook(book domain.Book) error {
	if strings.TrimSpace(book.Title) == "" {
		return domainerrors.Validation("book title cannot be empty")
	}
	if book.Pages < 1 {
		return domainerrors.Validation("pages must be at least 1")
	}
	if book.Rating < 0 || book.Rating > 5 {
		return domainerrors.Validation("rating must be between 0 and 5")
	}
	if !book.Status.Valid() {
		return domainerrors.Validationf("invalid status: %s", book.Status)
	}
	return nil
}
