package iocsv

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gntaxid/pkg/errcode"
)

// OpenError creates an error for an unreadable input file.
func OpenError(path string, err error) error {
	msg := `Cannot open input file

<em>File:</em> %s

<em>How to fix:</em>
  1. Check that the file exists
  2. Check its read permissions`

	vars := []any{path}

	return &gn.Error{
		Code: errcode.CSVOpenError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("cannot open %s: %w", path, err),
	}
}

// DecodeError creates an error for input that cannot be decoded.
func DecodeError(path string, err error) error {
	msg := `Cannot decode input file

<em>File:</em> %s

<em>Possible causes:</em>
  - The file is binary, not CSV
  - The file uses an unsupported text encoding

<em>How to fix:</em>
  1. Save the file as UTF-8 CSV and retry`

	vars := []any{path}

	return &gn.Error{
		Code: errcode.CSVReadError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("cannot decode %s: %w", path, err),
	}
}

// HeaderError creates an error for a file without a usable header
// row.
func HeaderError(path string, err error) error {
	msg := `Cannot read the header row

<em>File:</em> %s

<em>Possible causes:</em>
  - The file is empty
  - The file is not CSV

<em>How to fix:</em>
  1. Check the file content, the first row must hold column names`

	vars := []any{path}

	return &gn.Error{
		Code: errcode.CSVHeaderError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("cannot read header of %s: %w", path, err),
	}
}

// WriteError creates an error for a failed output write.
func WriteError(path string, err error) error {
	msg := `Cannot write output file

<em>File:</em> %s

<em>How to fix:</em>
  1. Check permissions of the output directory
  2. Check free disk space`

	vars := []any{path}

	return &gn.Error{
		Code: errcode.CSVWriteError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("cannot write %s: %w", path, err),
	}
}
