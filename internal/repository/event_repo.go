package repository

import (
	"context"

	"github.com/user/seo-audit-service/internal/entity"
)

// EventPublisher emits audit lifecycle events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event entity.AuditEvent) error
	Close() error
}
