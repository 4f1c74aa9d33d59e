// Package resolver implements the rule-based engine that fills the
// identity gaps of species records. It orchestrates a name oracle and a
// taxonomy finder through two ordered workflows and is pure given those
// collaborators: no I/O happens here.
//
// Primary workflow: convert the common name to a scientific name
// candidate and confirm the candidate with the authoritative lookup.
// Oracle output is never trusted on its own.
//
// Fallback workflow: validate the record's own scientific name by a
// round-trip conversion (latin -> common -> latin), then look up the
// normalized form, or the original when the round-trip yields nothing.
package resolver

import (
	"context"
	"errors"

	gntaxid "github.com/gnames/gntaxid/pkg"
	"github.com/gnames/gntaxid/pkg/oracle"
	"github.com/gnames/gntaxid/pkg/parserpool"
	"github.com/gnames/gntaxid/pkg/record"
)

type engine struct {
	oracle gntaxid.Oracle
	finder gntaxid.Finder
	pool   parserpool.Pool
}

// New creates a resolution engine from its collaborators. The parser
// pool is used to reduce names to canonical form before the structural
// plausibility gate, so decorated names like "Canis lupus Linnaeus,
// 1758" are still usable.
func New(
	o gntaxid.Oracle,
	f gntaxid.Finder,
	p parserpool.Pool,
) gntaxid.Resolver {
	return &engine{oracle: o, finder: f, pool: p}
}

// Resolve computes the best obtainable identity for one record. It
// returns an error only when the finder's cache is broken; every
// data-level failure degrades to a weaker outcome instead.
func (e *engine) Resolve(
	ctx context.Context,
	rec record.SpeciesRecord,
) (record.Outcome, error) {
	var out record.Outcome

	// a record that already carries all identity fields costs nothing
	if record.Complete(rec) {
		out.Status = record.Resolved
		return out, nil
	}

	common := record.Clean(rec.CommonName)
	latin := record.Clean(rec.LatinName)
	hasCommon := !record.Absent(common)
	hasLatin := !record.Absent(latin)

	// Primary workflow.
	var candidate string
	if hasCommon {
		if conv, err := e.oracle.Convert(ctx, common, oracle.ToLatin); err == nil {
			candidate = e.plausibleLatin(conv)
		}
		if candidate != "" {
			id, err := e.lookup(ctx, candidate)
			if err != nil {
				return out, err
			}
			if id != 0 {
				out.LatinName = candidate
				out.TaxonomyID = id
				out.Status = record.Resolved
				out.Path = record.PathPrimary
				return out, nil
			}
		}
	}

	// Fallback workflow.
	if hasLatin {
		return e.fallback(ctx, hasCommon, latin, candidate, out)
	}

	return e.partialOrUnresolved(candidate, out), nil
}

// fallback validates the record's own scientific name. The round-trip
// also recovers a common name for records that had none; that recovery
// is kept even when the rest of the workflow fails.
func (e *engine) fallback(
	ctx context.Context,
	hasCommon bool,
	latin, candidate string,
	out record.Outcome,
) (record.Outcome, error) {
	var subject string

	if back, err := e.oracle.Convert(ctx, latin, oracle.ToCommon); err == nil {
		if !hasCommon {
			out.CommonName = back
		}
		if norm, err := e.oracle.Convert(ctx, back, oracle.ToLatin); err == nil {
			subject = e.plausibleLatin(norm)
		}
	}

	// round-trip produced nothing usable, fall back to the record's own
	// name
	if subject == "" {
		subject = e.plausibleLatin(latin)
	}

	if subject == "" {
		return e.partialOrUnresolved(candidate, out), nil
	}

	id, err := e.lookup(ctx, subject)
	if err != nil {
		return out, err
	}
	if id != 0 {
		out.LatinName = subject
		out.TaxonomyID = id
		out.Status = record.Resolved
		out.Path = record.PathFallback
		return out, nil
	}

	// the scientific name survived validation, the reference taxonomy
	// just does not know it
	out.LatinName = subject
	out.Status = record.PartiallyResolved
	out.Path = record.PathFallback
	return out, nil
}

// partialOrUnresolved closes a resolution that produced no lookup hit.
// A plausible conversion candidate still improves the record.
func (e *engine) partialOrUnresolved(
	candidate string,
	out record.Outcome,
) record.Outcome {
	if candidate != "" {
		out.LatinName = candidate
		out.Status = record.PartiallyResolved
		out.Path = record.PathPrimary
		return out
	}
	out.Status = record.Unresolved
	out.Path = record.PathNone
	return out
}

// plausibleLatin reduces a name to its canonical binomial form and
// applies the structural gate. An empty result means the name must not
// spend a lookup call.
func (e *engine) plausibleLatin(s string) string {
	s = record.Clean(s)
	if can, ok := e.pool.Canonical(s); ok {
		s = can
	}
	if record.Plausible(s) {
		return s
	}
	return ""
}

// lookup translates the finder's not-found answer into a zero ID, so
// callers branch on values, not error types. Any remaining error is an
// infrastructure failure.
func (e *engine) lookup(ctx context.Context, latin string) (int, error) {
	id, err := e.finder.TaxID(ctx, latin)
	if err != nil {
		if errors.Is(err, gntaxid.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return id, nil
}
