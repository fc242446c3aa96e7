package tx

import "context"

// Manager runs fn inside one unit of work. Adapters that take part read the
// unit from the ctx passed to fn.
type Manager interface {
	Within(ctx context.Context, fn func(context.Context) error) error
}

// NoopManager runs fn directly. Used with in-memory stores and in tests.
type NoopManager struct{}

func (NoopManager) Within(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// OrNoop returns m, or NoopManager when m is nil.
func OrNoop(m Manager) Manager {
	if m == nil {
		return NoopManager{}
	}
	return m
}
