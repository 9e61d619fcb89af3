// Package archive persists finished batch reports to cold storage. The
// engine treats persistence as a collaborator: it hands over a report and
// the archive owns serialization and layout.
package archive

import "context"

// Store is the backend-agnostic blob interface the report archive writes
// through.
type Store interface {
	// Put stores data at the given path, overwriting any previous object.
	Put(ctx context.Context, path string, data []byte) error

	// Get retrieves the object at the given path.
	Get(ctx context.Context, path string) ([]byte, error)

	// List returns all object paths under the prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the object at the given path.
	Delete(ctx context.Context, path string) error
}
