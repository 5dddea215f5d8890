package ports

import (
	"context"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// ProfileCache is a best-effort read-through cache of public profiles.
// Get returns domain.ErrCacheMiss when nothing is cached for id.
type ProfileCache interface {
	Get(ctx context.Context, id string) (*domain.UserInfo, error)
	Set(ctx context.Context, info *domain.UserInfo) error
}
