package iotaxdb

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gntaxid/pkg/errcode"
)

// CacheDirError creates an error for when the cache directory
// cannot be created.
func CacheDirError(dir string, err error) error {
	msg := `Cannot create cache directory

<em>Directory:</em> %s

<em>How to fix:</em>
  1. Check permissions of the parent directory
  2. Point cache.dir in config.yaml at a writable location`

	vars := []any{dir}

	return &gn.Error{
		Code: errcode.CreateDirError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("cannot create dir %s: %w", dir, err),
	}
}

// DownloadError creates an error for a failed taxdump download.
func DownloadError(url string, err error) error {
	msg := `Cannot download the taxonomy archive

<em>URL:</em> %s

<em>Possible causes:</em>
  - No network connection
  - NCBI FTP site is temporarily unavailable

<em>How to fix:</em>
  1. Check network connectivity
  2. Retry later with <em>gntaxid fetch</em>`

	vars := []any{url}

	return &gn.Error{
		Code: errcode.TaxDBDownloadError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("download of %s failed: %w", url, err),
	}
}

// BadStatusError creates an error for an HTTP failure during
// the taxdump download.
func BadStatusError(url string, status int) error {
	msg := `Taxonomy archive download was rejected

<em>URL:</em> %s
<em>HTTP status:</em> %d

<em>How to fix:</em>
  1. Verify cache.taxdump_url in config.yaml
  2. Retry later, the NCBI site may be under maintenance`

	vars := []any{url, status}

	return &gn.Error{
		Code: errcode.TaxDBDownloadError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("download of %s returned status %d", url, status),
	}
}

// ArchiveError creates an error for an unreadable taxdump archive.
func ArchiveError(path string, err error) error {
	msg := `Cannot read the taxonomy archive

<em>File:</em> %s

<em>Possible causes:</em>
  - Download was interrupted
  - File is corrupted

<em>How to fix:</em>
  1. Run <em>gntaxid fetch --force</em> to download it again`

	vars := []any{path}

	return &gn.Error{
		Code: errcode.TaxDBArchiveError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("cannot read archive %s: %w", path, err),
	}
}

// BuildError creates an error for a failed database build.
func BuildError(err error) error {
	msg := `Cannot build the taxonomy database

<em>Possible causes:</em>
  - Not enough disk space
  - Cache directory is not writable

<em>How to fix:</em>
  1. Check free space in the cache directory
  2. Run <em>gntaxid fetch --force</em> to rebuild`

	return &gn.Error{
		Code: errcode.TaxDBBuildError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("cannot build taxonomy database: %w", err),
	}
}

// MissingError creates an error for when the taxonomy database
// has not been built yet.
func MissingError(path string) error {
	msg := `Taxonomy database is not built yet

<em>Expected location:</em> %s

<em>How to fix:</em>
  1. Run <em>gntaxid fetch</em> to download and build it
     (a one-time download of a few dozen MB)`

	vars := []any{path}

	return &gn.Error{
		Code: errcode.TaxDBMissingError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("taxonomy database %s does not exist", path),
	}
}

// OpenError creates an error for an unreadable taxonomy database.
func OpenError(path string, err error) error {
	msg := `Cannot open the taxonomy database

<em>File:</em> %s

<em>Possible causes:</em>
  - Database file is corrupted
  - A previous build was interrupted

<em>How to fix:</em>
  1. Run <em>gntaxid fetch --force</em> to rebuild it`

	vars := []any{path}

	return &gn.Error{
		Code: errcode.TaxDBOpenError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("cannot open taxonomy database %s: %w", path, err),
	}
}

// QueryError creates an error for a failed lookup query. This is
// an infrastructure failure, not a not-found condition.
func QueryError(name string, err error) error {
	msg := `Taxonomy database query failed

<em>Name:</em> %s

<em>How to fix:</em>
  1. Run <em>gntaxid fetch --force</em> to rebuild the database`

	vars := []any{name}

	return &gn.Error{
		Code: errcode.TaxDBQueryError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("query for %q failed: %w", name, err),
	}
}

// MetaError creates an error for unreadable or unwritable cache
// metadata.
func MetaError(path string, err error) error {
	msg := `Cannot access taxonomy cache metadata

<em>File:</em> %s`

	vars := []any{path}

	return &gn.Error{
		Code: errcode.TaxDBMetaError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("cannot access meta file %s: %w", path, err),
	}
}
