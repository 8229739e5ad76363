package middleware

import "github.com/aretw0/questscribe/pkg/ports"

// Middleware allows wrapping a DocumentStore to add behavior.
type Middleware func(ports.DocumentStore) ports.DocumentStore

// Chain applies middlewares so the first one listed is the outermost.
func Chain(store ports.DocumentStore, mws ...Middleware) ports.DocumentStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
