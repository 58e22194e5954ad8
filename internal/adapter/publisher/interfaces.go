package publisher

import (
	"context"

	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/event"
)

//go:generate mockgen -source=interfaces.go -destination=../../mocks/publisher_mocks.go -package=mocks

// EventPublisher delivers live events to connected devices. Delivery is best
// effort; callers log failures and carry on.
type EventPublisher interface {
	Publish(ctx context.Context, evt event.Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, event.Event) error { return nil }
