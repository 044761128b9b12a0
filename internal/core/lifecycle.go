// Package core manages the process lifecycle: components are registered in
// dependency order, started in that order, and stopped in reverse with a
// timeout. Components are wired at compile time; no background work starts
// as a side effect of construction.
package core

import "context"

// Starter is implemented by components that begin background work
// (listeners, schedulers). Called in registration order.
type Starter interface {
	Start() error
}

// Stopper is implemented by components that hold resources. Called during
// shutdown in reverse registration order.
type Stopper interface {
	Stop(ctx context.Context) error
}
