package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-ideas-backend/internal/repo"
)

// DefaultIdempotencyTTL is how long a remembered create can be replayed.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyService records the outcome of create requests that carried an
// Idempotency-Key so a retry returns the original resource instead of
// creating a second one.
type IdempotencyService struct {
	DB  *gorm.DB
	TTL time.Duration
	Now func() time.Time
}

// Lookup returns the resource id remembered for (userID, scope, key), if a
// live record exists.
func (s *IdempotencyService) Lookup(ctx context.Context, userID, scope, key string) (string, bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, userID, scope, key, s.now())
	if errors.Is(err, repo.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return rec.ResourceID, true, nil
}

// Remember stores resourceID under (userID, scope, key). A concurrent request
// that already stored the tuple wins; that is not an error.
func (s *IdempotencyService) Remember(ctx context.Context, userID, scope, key, resourceID string, status int) error {
	_, err := repo.CreateIdempotency(ctx, s.DB, userID, scope, key, resourceID, status, s.ttl())
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

func (s *IdempotencyService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultIdempotencyTTL
	}
	return s.TTL
}

func (s *IdempotencyService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
