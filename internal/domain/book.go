package domain

import (
	"slices"
	"time"
)

// Status represents a book's reading state.
type Status string

const (
	// StatusIncomplete indicates the book has not been finished yet.
	StatusIncomplete Status = "incomplete"
	// StatusCompleted indicates the book has been read to the end.
	StatusCompleted Status = "completed"
)

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	return s == StatusIncomplete || s == StatusCompleted
}

// Book is a single catalog entry with descriptive metadata and visual styling fields.
// Books live embedded inside exactly one Shelf's book list; they have no independent
// lifecycle and are never partially patched - edits replace the whole entry.
type Book struct {
	ID            string   `json:"id"`    // Client-generated unique token (UUID)
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Pages         int      `json:"pages"` // Always >= 1, enforced at the input boundary
	Description   string   `json:"description,omitempty"`
	Tags          []string `json:"tags,omitempty"` // Insertion order preserved for display
	Rating        float64  `json:"rating,omitempty"` // 0-5, zero means unrated
	Status        Status   `json:"status,omitempty"`
	CoverColor    string   `json:"cover_color,omitempty"`
	SpineColor    string   `json:"spine_color,omitempty"`
	CoverImageURL string   `json:"cover_image_url,omitempty"`
	CoverBlurHash string   `json:"cover_blur_hash,omitempty"` // Placeholder for progressive cover rendering
	CreatedAt     string   `json:"created_at"`
}

// Equal reports whether two book entries match field for field.
// Removal uses exact-match semantics on the full entry contents, so a book
// that was edited remotely after being read locally no longer compares equal.
func (b Book) Equal(other Book) bool {
	return b.ID == other.ID &&
		b.Title == other.Title &&
		b.Author == other.Author &&
		b.Pages == other.Pages &&
		b.Description == other.Description &&
		b.Rating == other.Rating &&
		b.Status == other.Status &&
		b.CoverColor == other.CoverColor &&
		b.SpineColor == other.SpineColor &&
		b.CoverImageURL == other.CoverImageURL &&
		b.CoverBlurHash == other.CoverBlurHash &&
		b.CreatedAt == other.CreatedAt &&
		slices.Equal(b.Tags, other.Tags)
}

// NowTimestamp returns the current time as an ISO 8601 string with millisecond
// precision, always in UTC. Timestamps are stored as opaque strings and ordered
// by plain string comparison, so the fixed-width format matters.
func NowTimestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
