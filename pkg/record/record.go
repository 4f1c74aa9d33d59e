// Package record holds the species identity types and the name hygiene
// rules shared by the resolution engine and the I/O layers. It is a pure
// package with no side effects.
package record

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/gnames/gnlib"
)

// Status describes how far resolution got for one record.
type Status int

const (
	// Unresolved means no usable scientific name could be established.
	// The record is left untouched.
	Unresolved Status = iota

	// PartiallyResolved means a scientific name survived validation but
	// the reference taxonomy has no ID for it.
	PartiallyResolved

	// Resolved means both the scientific name and the taxonomy ID are
	// settled.
	Resolved
)

func (s Status) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case PartiallyResolved:
		return "partial"
	default:
		return "unresolved"
	}
}

// Path reports which workflow produced a result.
type Path int

const (
	// PathNone means no workflow ran to completion, either because the
	// record was already complete or because no usable input existed.
	PathNone Path = iota

	// PathPrimary means the common name was converted to a scientific
	// name and the conversion was confirmed by the taxonomy lookup.
	PathPrimary

	// PathFallback means the record's own scientific name carried the
	// resolution after a round-trip validation.
	PathFallback
)

func (p Path) String() string {
	switch p {
	case PathPrimary:
		return "primary"
	case PathFallback:
		return "fallback"
	default:
		return "none"
	}
}

// SpeciesRecord carries the identity fields of one data row. All fields
// hold raw cell content; use Clean and Absent before interpreting them.
type SpeciesRecord struct {
	// Row is the 1-based data row number in the source file, used for
	// warnings and logs.
	Row int

	CommonName string
	LatinName  string
	TaxonomyID string
}

// Outcome is the result of resolving one record. Zero-valued fields mean
// "nothing computed"; Merge keeps the record's prior content for them.
type Outcome struct {
	// CommonName is set only when a reverse conversion recovered a
	// common name for a record that had none.
	CommonName string

	// LatinName is set when a scientific name was confirmed by lookup,
	// or when it is the validated normalization of the record's own
	// scientific name.
	LatinName string

	// TaxonomyID is zero when no lookup succeeded.
	TaxonomyID int

	Status Status
	Path   Path
}

// absentMarkers are cell values that mean "no data" rather than a name.
// Compared lowercase after cleaning.
var absentMarkers = map[string]struct{}{
	"":        {},
	"-":       {},
	"nan":     {},
	"n/a":     {},
	"unknown": {},
}

// Clean normalizes a name cell: repairs mangled UTF-8, removes asterisk
// markers left by upstream spreadsheets, and collapses all whitespace
// runs to single spaces. Clean is idempotent.
func Clean(s string) string {
	s = gnlib.FixUtf8(s)
	s = strings.ReplaceAll(s, "*", "")
	return strings.Join(strings.Fields(s), " ")
}

// Absent reports whether a cell value is a null marker rather than a
// name. The value is cleaned first, so " N/A " and "nan" are absent.
func Absent(s string) bool {
	_, ok := absentMarkers[strings.ToLower(Clean(s))]
	return ok
}

// Plausible reports whether s is shaped like a species binomial: exactly
// two space-separated tokens, letters only, genus capitalized with the
// rest lowercase, epithet all lowercase. It is a structural gate, not a
// taxonomic judgement; "Xyzabc qqqqq" passes, "wolf123" does not.
func Plausible(s string) bool {
	words := strings.Fields(s)
	if len(words) != 2 {
		return false
	}

	genus := []rune(words[0])
	if !unicode.IsUpper(genus[0]) {
		return false
	}
	for _, r := range genus[1:] {
		if !unicode.IsLower(r) {
			return false
		}
	}

	for _, r := range words[1] {
		if !unicode.IsLower(r) {
			return false
		}
	}
	return true
}

// Complete reports whether all three identity fields carry data. Such
// records need no external calls.
func Complete(rec SpeciesRecord) bool {
	return !Absent(rec.CommonName) &&
		!Absent(rec.LatinName) &&
		!Absent(rec.TaxonomyID)
}

// Merge applies an outcome to a record. Computed values overwrite, empty
// ones preserve what the record already had, so a failed resolution
// never degrades a row.
func Merge(rec SpeciesRecord, out Outcome) SpeciesRecord {
	if out.CommonName != "" {
		rec.CommonName = out.CommonName
	}
	if out.LatinName != "" {
		rec.LatinName = out.LatinName
	}
	if out.TaxonomyID != 0 {
		rec.TaxonomyID = strconv.Itoa(out.TaxonomyID)
	}
	return rec
}
