package errcode

import (
	"github.com/gnames/gn"
)

const (
	UnknownError gn.ErrorCode = iota

	// File System errors
	CreateDirError
	CopyFileError
	ReadFileError

	// Logging errors
	CreateLogFileError

	// Name oracle errors
	OracleAPIKeyMissingError
	OracleRequestError
	OracleResponseError
	OracleAnswerError

	// Taxonomy cache errors
	TaxDBDownloadError
	TaxDBArchiveError
	TaxDBBuildError
	TaxDBMissingError
	TaxDBOpenError
	TaxDBQueryError
	TaxDBMetaError

	// CSV errors
	CSVOpenError
	CSVReadError
	CSVHeaderError
	CSVWriteError

	// Processing errors
	ProcessCanceledError
)
