// Package sink defines the destination contract for uploaded rows and a
// registry of backends selected by kind.
//
// Backends register themselves from an init function:
//
//	func init() { sink.Register("postgres", New) }
//
// Commands blank-import internal/sink/all and call New with the configured kind.
package sink

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Sentinel errors that abort an upload run. Backends wrap them with %w.
var (
	ErrUnavailable  = errors.New("sink unavailable")
	ErrUnauthorized = errors.New("sink rejected credentials")
)

// IsFatal reports whether err means no further batch can succeed.
func IsFatal(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrUnauthorized)
}

// Sink accepts batches of rows for a named collection.
type Sink interface {
	// Ping verifies the destination is reachable with the configured credentials.
	Ping(ctx context.Context) error
	// Insert writes all rows of b or none of them.
	Insert(ctx context.Context, collection string, b Batch) error
	Close() error
}

// Batch is a slice of rows sharing one column list. Row values are nil,
// string or float64, as produced by core.Value.Transport.
type Batch struct {
	Columns []string
	Rows    [][]any
	// ConflictColumns, when set, make rows that collide on these columns
	// be skipped instead of failing the batch.
	ConflictColumns []string
}

// Len is the number of rows in the batch.
func (b Batch) Len() int { return len(b.Rows) }

// Records returns the rows as column-keyed maps.
func (b Batch) Records() []map[string]any {
	out := make([]map[string]any, len(b.Rows))
	for i, row := range b.Rows {
		m := make(map[string]any, len(b.Columns))
		for j, c := range b.Columns {
			if j < len(row) {
				m[c] = row[j]
			} else {
				m[c] = nil
			}
		}
		out[i] = m
	}
	return out
}

// Config carries the settings every backend may need. Each backend reads
// only the fields relevant to it.
type Config struct {
	Kind    string
	URL     string // rest: project base URL
	Key     string // rest: service role key
	DSN     string // postgres, sqlite, mssql
	Timeout time.Duration
}

// Factory constructs a Sink. It should not perform I/O beyond opening
// connections; reachability is checked by Ping.
type Factory func(ctx context.Context, cfg Config) (Sink, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind.
//
// It panics when kind is empty, f is nil or kind is already registered, since
// these are programming errors caught at init time.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("sink: Register called with empty kind")
	}
	if f == nil {
		panic("sink: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("sink: factory already registered for kind=%q", kind))
	}
	factories[kind] = f
}

// New constructs the backend registered under cfg.Kind.
func New(ctx context.Context, cfg Config) (Sink, error) {
	if cfg.Kind == "" {
		return nil, errors.New("sink: missing kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("sink: unsupported kind=%s (registered: %v)", cfg.Kind, Kinds())
	}
	return f(ctx, cfg)
}

// Kinds lists the registered backend kinds in sorted order.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
