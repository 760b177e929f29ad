// Package events dispatches domain events to interested parties.
package events

import (
	"context"

	"storefront/pkg/logger"
)

// Event is anything with a stable type name.
type Event interface {
	Type() string
}

// Dispatcher delivers events. Implementations must be safe for concurrent use.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, event Event) error

// Dispatch calls f.
func (f DispatcherFunc) Dispatch(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Discard drops every event.
var Discard Dispatcher = DispatcherFunc(func(context.Context, Event) error { return nil })

// Logged records each event at info level before passing it to next.
// Failures from next are returned for the caller to report.
func Logged(log *logger.Logger, next Dispatcher) Dispatcher {
	return DispatcherFunc(func(ctx context.Context, event Event) error {
		log.Info(ctx, "event", "type", event.Type())
		return next.Dispatch(ctx, event)
	})
}
