package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookcaseapp/bookcase-server/internal/domain"
	"github.com/bookcaseapp/bookcase-server/internal/views"
)

// maxSearchResults caps how many matches a single search returns.
const maxSearchResults = 10

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search books",
		Description: "Case-insensitive substring search over titles, authors and tags across all of the user's shelves",
		Tags:        []string{"Views"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "filterShelves",
		Method:      http.MethodGet,
		Path:        "/api/v1/shelves/filtered",
		Summary:     "Filter shelves",
		Description: "Returns the user's shelves with books narrowed by rating and status predicates",
		Tags:        []string{"Views"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleFilter)
}

// === DTOs ===

// SearchInput contains the search query.
type SearchInput struct {
	Authorization string `header:"Authorization"`
	Query         string `query:"q" doc:"Search query"`
}

// SearchOutput wraps the search results for Huma.
type SearchOutput struct {
	Body struct {
		Results []views.SearchResult `json:"results" doc:"Matches in shelf order, capped at 10"`
	}
}

// FilterInput contains the filter predicates. Omitted parameters match everything.
type FilterInput struct {
	Authorization string `header:"Authorization"`
	Rating        string `query:"rating" enum:"all,3-and-up,under-3" doc:"Rating predicate"`
	Status        string `query:"status" enum:"all,completed,incomplete" doc:"Status predicate"`
}

// FilterOutput wraps the filtered shelves for Huma.
type FilterOutput struct {
	Body struct {
		Shelves []*domain.Shelf `json:"shelves" doc:"Shelves with non-matching books removed"`
	}
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	results, err := s.services.Shelf.Search(ctx, userID, input.Query)
	if err != nil {
		return nil, err
	}
	if len(results) > maxSearchResults {
		results = results[:maxSearchResults]
	}

	out := &SearchOutput{}
	out.Body.Results = results
	return out, nil
}

func (s *Server) handleFilter(ctx context.Context, input *FilterInput) (*FilterOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	state := views.DefaultFilterState()
	if input.Rating != "" {
		state.Rating = views.RatingFilter(input.Rating)
	}
	if input.Status != "" {
		state.Status = views.StatusFilter(input.Status)
	}

	shelves, err := s.services.Shelf.Filter(ctx, userID, state)
	if err != nil {
		return nil, err
	}

	out := &FilterOutput{}
	out.Body.Shelves = shelves
	return out, nil
}
