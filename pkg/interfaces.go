// Package gntaxid defines the core contracts of the gntaxid application.
// Implementations live in internal/io* packages (impure, talk to the
// network and the filesystem) and in pkg/resolver (pure orchestration).
package gntaxid

import (
	"context"
	"errors"

	"github.com/gnames/gntaxid/pkg/oracle"
	"github.com/gnames/gntaxid/pkg/record"
)

// ErrNotFound is returned by Finder implementations when the reference
// taxonomy has no identifier for a name. It covers true misses and
// ambiguous matches alike; both are answered conservatively with no ID.
var ErrNotFound = errors.New("taxonomy id not found")

// Oracle converts between common and scientific names using an external
// language-model service. It is best-effort and never authoritative:
// answers may be wrong, and any call may fail. Callers must be prepared
// to continue without a conversion.
type Oracle interface {
	// Convert translates name in the given direction. It returns a
	// cleaned single-name answer, or an error when the service is
	// unreachable, over its retry budget, or returned nothing usable.
	// Errors are expected in normal operation and are not fatal.
	Convert(ctx context.Context, name string, dir oracle.Direction) (string, error)
}

// Finder answers the authoritative question "what is the taxonomy ID of
// this scientific name" from a local cache of the reference taxonomy.
//
// Not finding a name is a normal answer, reported as ErrNotFound by the
// implementation. Any other error means the cache itself is unusable and
// the run cannot continue.
type Finder interface {
	// TaxID returns the taxonomy ID for a scientific name. Lookups are
	// exact after canonicalization; no fuzzy matching is attempted.
	TaxID(ctx context.Context, latin string) (int, error)

	// Close releases the underlying cache resources.
	Close() error
}

// Resolver fills the identity gaps of a single species record. It
// orchestrates an Oracle and a Finder but performs no I/O of its own.
type Resolver interface {
	// Resolve computes the best obtainable identity for rec. The
	// returned outcome never degrades information the record already
	// has. An error is returned only when the Finder's cache is broken;
	// oracle failures and unknown names are normal outcomes, not errors.
	Resolve(ctx context.Context, rec record.SpeciesRecord) (record.Outcome, error)
}

// Stats aggregates the row counts of one batch run. AllRows covers the
// parseable data rows; Malformed rows are counted separately and are
// not part of any other bucket.
type Stats struct {
	AllRows    int
	Malformed  int
	Skipped    int
	Resolved   int
	Partial    int
	Unresolved int
}

// Processor runs the resolution over a whole file of species records.
// Individual bad rows never abort a run; infrastructure failures do.
type Processor interface {
	// Process reads the configured input file, resolves its records
	// concurrently, and writes the updated table to the configured
	// output file. An error means the run could not finish; no output
	// file is written in that case.
	Process(ctx context.Context) (Stats, error)
}
