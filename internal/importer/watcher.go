// Package importer defines the contract for the (out-of-core)
// file-watch collaborator that notices changed vocabulary source files.
// No markdown parsing happens here; Watch only
// calls onChange with the path of whatever changed.
package importer

import "context"

// Watcher notices changes to files under a directory.
type Watcher interface {
	// Watch monitors dir and calls onChange with the changed file's
	// path on create or write events; an implementation may coalesce a
	// burst of events on one file into a single call. Watch blocks until ctx is
	// cancelled or an unrecoverable error occurs.
	Watch(ctx context.Context, dir string, onChange func(path string)) error
}
