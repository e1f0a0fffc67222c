// Package tables registers the destination table definitions with the core
// registry. Import it for its side effects before calling core.Get or core.Lookup.
package tables
