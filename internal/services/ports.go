package services

import (
	"context"
	"log/slog"
	"time"

	"teamfin/internal/core"
	"teamfin/internal/storage"
)

// EventPublisher dispatches domain events after the state change that
// produced them was persisted.
//
//go:generate mockgen -destination=mocks/mock_publisher.go -package=mock_services -source=ports.go EventPublisher
type EventPublisher interface {
	Publish(ctx context.Context, events []core.Event) error
}

// Clock returns the current time.
type Clock func() time.Time

// publish hands events to pub. The state change is already persisted, so a
// failure is logged and not returned.
func publish(ctx context.Context, pub EventPublisher, events []core.Event) {
	if len(events) == 0 {
		return
	}
	if pub == nil {
		slog.WarnContext(ctx, "Event publisher not available, skipping events", "count", len(events))
		return
	}
	if err := pub.Publish(ctx, events); err != nil {
		names := make([]string, len(events))
		for i, e := range events {
			names[i] = e.Name
		}
		slog.ErrorContext(ctx, "Failed to publish domain events",
			"events", names,
			"error", err)
	}
}

// Deps are the collaborators shared by the services.
type Deps struct {
	Store     storage.Store
	Publisher EventPublisher
	Clock     Clock
}

func (d Deps) now() time.Time {
	if d.Clock == nil {
		return time.Now().UTC()
	}
	return d.Clock()
}
