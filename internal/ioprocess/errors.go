package ioprocess

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gntaxid/pkg/errcode"
)

// CanceledError creates an error for an interrupted run. No output file
// is written for such runs.
func CanceledError(err error) error {
	msg := `Processing was interrupted

The output file was <em>not</em> written.

<em>How to fix:</em>
  1. Run the command again; rows that already carry all
     identity fields cost nothing to reprocess`

	return &gn.Error{
		Code: errcode.ProcessCanceledError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("processing canceled: %w", err),
	}
}
