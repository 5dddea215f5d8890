package ports

import (
	"context"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// AuditRecorder accepts audit events without blocking the caller.
type AuditRecorder interface {
	Record(ctx context.Context, event domain.AuthEvent)
}

// AuthEventRepository persists audit events.
type AuthEventRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuthEvent) error
}
