package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookcaseapp/bookcase-server/internal/domain"
	"github.com/bookcaseapp/bookcase-server/internal/views"
)

func (ts *testServer) createShelf(t *testing.T, token, name string) domain.Shelf {
	t.Helper()

	resp := ts.api.Post("/api/v1/shelves",
		map[string]any{"name": name},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var shelf domain.Shelf
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &shelf))
	return shelf
}

func (ts *testServer) addBook(t *testing.T, token, shelfID string, book map[string]any) domain.Shelf {
	t.Helper()

	resp := ts.api.Post("/api/v1/shelves/"+shelfID+"/books",
		book,
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var shelf domain.Shelf
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &shelf))
	return shelf
}

func TestCreateShelf(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerUser(t, "reader@example.com")

	shelf := ts.createShelf(t, token, "  Sci-Fi  ")

	assert.NotEmpty(t, shelf.ID)
	assert.Equal(t, "Sci-Fi", shelf.Name)
	assert.NotEmpty(t, shelf.CreatedAt)
	assert.Empty(t, shelf.Books)
}

func TestCreateShelf_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/shelves", map[string]any{"name": "Sci-Fi"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCreateShelf_EmptyName(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerUser(t, "reader@example.com")

	resp := ts.api.Post("/api/v1/shelves",
		map[string]any{"name": "   "},
		"Authorization: Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
}

func TestListShelves_OwnerScopedAndOrdered(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerUser(t, "reader@example.com")
	otherToken := ts.registerUser(t, "other@example.com")

	first := ts.createShelf(t, token, "First")
	second := ts.createShelf(t, token, "Second")
	ts.createShelf(t, otherToken, "Not Mine")

	resp := ts.api.Get("/api/v1/shelves", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body struct {
		Shelves []domain.Shelf `json:"shelves"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))

	require.Len(t, body.Shelves, 2)
	assert.Equal(t, first.ID, body.Shelves[0].ID)
	assert.Equal(t, second.ID, body.Shelves[1].ID)
}

func TestGetShelf_OtherUserForbidden(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerUser(t, "reader@example.com")
	otherToken := ts.registerUser(t, "other@example.com")

	shelf := ts.createShelf(t, token, "Private")

	resp := ts.api.Get("/api/v1/shelves/"+shelf.ID, "Authorization: Bearer "+otherToken)
	assert.Equal(t, http.StatusForbidden, resp.Code, resp.Body.String())
}

func TestDeleteShelf(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerUser(t, "reader@example.com")

	shelf := ts.createShelf(t, token, "Doomed")

	resp := ts.api.Delete("/api/v1/shelves/"+shelf.ID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/shelves/"+shelf.ID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestAddBook_FillsDefaults(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerUser(t, "reader@example.com")

	shelf := ts.createShelf(t, token, "Sci-Fi")
	updated := ts.addBook(t, token, shelf.ID, map[string]any{
		"title":  "Dune",
		"author": "Frank Herbert",
		"pages":  412,
	})

	require.Len(t, updated.Books, 1)
	book := updated.Books[0]
	assert.NotEmpty(t, book.ID)
	assert.NotEmpty(t, book.CreatedAt)
	assert.Equal(t, domain.StatusIncomplete, book.Status)
	assert.Equal(t, "#A1887F", book.SpineColor)
}

func TestAddBook_InvalidRating(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerUser(t, "reader@example.com")

	shelf := ts.createShelf(t, token, "Sci-Fi")

	resp := ts.api.Post("/api/v1/shelves/"+shelf.ID+"/books",
		map[string]any{"title": "Dune", "author": "Frank Herbert", "pages": 412, "rating": 9},
		"Authorization: Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
}

func TestRemoveBook(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerUser(t, "reader@example.com")

	shelf := ts.createShelf(t, token, "Sci-Fi")
	updated := ts.addBook(t, token, shelf.ID, map[string]any{"title": "Dune", "author": "Frank Herbert", "pages": 412})
	bookID := updated.Books[0].ID

	resp := ts.api.Delete("/api/v1/shelves/"+shelf.ID+"/books/"+bookID,
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body struct {
		Removed bool `json:"removed"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.True(t, body.Removed)

	resp = ts.api.Get("/api/v1/shelves/"+shelf.ID, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var after domain.Shelf
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &after))
	assert.Empty(t, after.Books)
}

func TestRemoveBook_UnknownIDIsNoOp(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerUser(t, "reader@example.com")

	shelf := ts.createShelf(t, token, "Sci-Fi")
	ts.addBook(t, token, shelf.ID, map[string]any{"title": "Dune", "author": "Frank Herbert", "pages": 412})

	resp := ts.api.Delete("/api/v1/shelves/"+shelf.ID+"/books/never-existed",
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body struct {
		Removed bool `json:"removed"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.False(t, body.Removed)
}

func TestUpdateBook_ReplacesEntry(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerUser(t, "reader@example.com")

	shelf := ts.createShelf(t, token, "Sci-Fi")
	updated := ts.addBook(t, token, shelf.ID, map[string]any{"title": "Dune", "author": "Frank Herbert", "pages": 412})
	book := updated.Books[0]

	resp := ts.api.Put("/api/v1/shelves/"+shelf.ID+"/books/"+book.ID,
		map[string]any{
			"title":      "Dune",
			"author":     "Frank Herbert",
			"pages":      412,
			"rating":     5,
			"status":     "completed",
			"created_at": book.CreatedAt,
		},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var after domain.Shelf
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &after))
	require.Len(t, after.Books, 1)
	assert.Equal(t, book.ID, after.Books[0].ID)
	assert.Equal(t, domain.StatusCompleted, after.Books[0].Status)
	assert.InDelta(t, 5.0, after.Books[0].Rating, 0.001)
}

func TestUpdateBook_UnknownBook(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerUser(t, "reader@example.com")

	shelf := ts.createShelf(t, token, "Sci-Fi")

	resp := ts.api.Put("/api/v1/shelves/"+shelf.ID+"/books/never-existed",
		map[string]any{"title": "Ghost", "pages": 100, "status": "incomplete", "created_at": domain.NowTimestamp()},
		"Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code, resp.Body.String())
}

func TestSearch_AnnotatesAndCaps(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerUser(t, "reader@example.com")

	shelf := ts.createShelf(t, token, "Sci-Fi")
	for range maxSearchResults + 3 {
		ts.addBook(t, token, shelf.ID, map[string]any{"title": "Dune Reread", "author": "Frank Herbert", "pages": 412})
	}
	ts.addBook(t, token, shelf.ID, map[string]any{"title": "Hyperion", "author": "Dan Simmons", "pages": 482})

	resp := ts.api.Get("/api/v1/search?q=dune", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body struct {
		Results []views.SearchResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))

	require.Len(t, body.Results, maxSearchResults)
	assert.Equal(t, shelf.ID, body.Results[0].ShelfID)
	assert.Equal(t, "Sci-Fi", body.Results[0].ShelfName)
}

func TestFilterShelves(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerUser(t, "reader@example.com")

	shelf := ts.createShelf(t, token, "Sci-Fi")
	ts.addBook(t, token, shelf.ID, map[string]any{"title": "Dune", "author": "Frank Herbert", "pages": 412, "rating": 5, "status": "completed"})
	ts.addBook(t, token, shelf.ID, map[string]any{"title": "Hyperion", "author": "Dan Simmons", "pages": 482, "rating": 2})

	resp := ts.api.Get("/api/v1/shelves/filtered?rating=3-and-up",
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body struct {
		Shelves []domain.Shelf `json:"shelves"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))

	require.Len(t, body.Shelves, 1)
	require.Len(t, body.Shelves[0].Books, 1)
	assert.Equal(t, "Dune", body.Shelves[0].Books[0].Title)
}
