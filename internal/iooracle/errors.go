package iooracle

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gntaxid/pkg/errcode"
)

// APIKeyMissingError creates an error for when the oracle API key
// is not configured.
func APIKeyMissingError() error {
	msg := `API key for the name conversion service is not set

<em>How to fix:</em>
  1. Get an API key from the GLM provider (https://open.bigmodel.cn)
  2. Export it before running:
       export GNTAXID_ORACLE_API_KEY=your-key
     The provider's own ZHIPU_API_KEY variable works too`

	return &gn.Error{
		Code: errcode.OracleAPIKeyMissingError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("oracle API key is empty"),
	}
}

// RequestError creates an error for when a request cannot even
// be built.
func RequestError(err error) error {
	msg := `Cannot build a request for the name conversion service

<em>How to fix:</em>
  1. Check oracle.base_url in config.yaml for malformed values`

	return &gn.Error{
		Code: errcode.OracleRequestError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("cannot build oracle request: %w", err),
	}
}

// BadStatusError creates an error for HTTP failures that retrying
// cannot fix.
func BadStatusError(status int, body []byte) error {
	msg := `Name conversion service rejected the request

<em>HTTP status:</em> %d
<em>Response:</em> %s

<em>Possible causes:</em>
  - API key is invalid or expired
  - Request format not accepted by the endpoint

<em>How to fix:</em>
  1. Verify GNTAXID_ORACLE_API_KEY is correct
  2. Check oracle.base_url and oracle.model in config.yaml`

	vars := []any{status, string(body)}

	return &gn.Error{
		Code: errcode.OracleRequestError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("oracle returned status %d", status),
	}
}

// ResponseError creates an error for when the service response
// carries an explicit error object.
func ResponseError(apiMsg string) error {
	msg := `Name conversion service returned an error

<em>Service message:</em> %s

<em>How to fix:</em>
  1. Verify the configured model is available for your account
  2. Check the service status page`

	vars := []any{apiMsg}

	return &gn.Error{
		Code: errcode.OracleResponseError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("oracle API error: %s", apiMsg),
	}
}

// ConversionError creates an error for when the retry budget for
// one name is exhausted.
func ConversionError(name string, attempts int, err error) error {
	msg := `Name conversion failed after <em>%d</em> attempts

<em>Name:</em> %s

<em>Possible causes:</em>
  - Network problems
  - Service overload or rate limiting

<em>How to fix:</em>
  1. Check network connectivity
  2. Rerun later, already resolved rows are skipped on the next run`

	vars := []any{attempts, name}

	return &gn.Error{
		Code: errcode.OracleRequestError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("conversion failed after %d attempts: %w", attempts, err),
	}
}

// AnswerError creates an error for when the service kept answering
// with unusable content.
func AnswerError(name string, err error) error {
	msg := `Name conversion service produced no usable answer

<em>Name:</em> %s

<em>How to fix:</em>
  1. Check the name for typos or stray characters
  2. Try a more specific form of the name`

	vars := []any{name}

	return &gn.Error{
		Code: errcode.OracleAnswerError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("no usable answer: %w", err),
	}
}
