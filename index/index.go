// Package index defines the configuration contract and error taxonomy shared
// by the index engines. The engine packages implement Config; the root
// package dispatches on Config.Type when opening a persisted index.
package index

// Config describes how an index is built and read. A Config is persisted as
// the final record of an index file and must round-trip through JSON.
type Config interface {
	// Type returns the config's type tag ("hashbucket", "trigram").
	Type() string

	// Validate reports whether the config parameters are usable.
	Validate() error
}
