package ports

import (
	"context"

	"github.com/tientodo/todo-api/internal/core/domain"
)

// AuthEventSink accepts auth audit events for asynchronous recording.
// Implementations must not block the calling request path.
type AuthEventSink interface {
	Enqueue(event domain.AuthEvent)
}

// AuditService persists auth audit events.
type AuditService interface {
	Record(ctx context.Context, event domain.AuthEvent) error
}

// AuditRepository is the storage behind the audit trail.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuthEvent) error
}
