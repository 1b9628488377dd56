package port

import (
	"context"

	"github.com/vendora/inventory/internal/core/domain"
)

// EventPublisher delivers post-commit events to external subscribers.
// Delivery failures must not affect committed state; callers log and move on.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}
