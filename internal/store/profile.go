package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/bookcaseapp/bookcase-server/internal/domain"
)

const profilePrefix = "profile:"

// ErrProfileNotFound is returned when a user profile is not found.
var ErrProfileNotFound = errors.New("profile not found")

// GetProfile retrieves a user's public profile document.
// Returns ErrProfileNotFound if no profile exists.
func (s *Store) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := []byte(profilePrefix + userID)

	var profile domain.Profile
	if err := s.get(key, &profile); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return &profile, nil
}

// SaveProfile creates or updates a user's profile document.
func (s *Store) SaveProfile(ctx context.Context, profile *domain.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := []byte(profilePrefix + profile.UserID)

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}
