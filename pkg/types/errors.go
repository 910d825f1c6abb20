package types

import (
	"context"
	"errors"
	"fmt"
)

// Run-level error kinds. Adapter failures never surface as errors; they
// become failed evidence items.
var (
	ErrBundleInsufficient = errors.New("evidence bundle insufficient")
	ErrGenerationContract = errors.New("generation contract violated")
	ErrPersistence        = errors.New("persistence failed")
	ErrConfiguration      = errors.New("configuration invalid")
)

// ErrorCode classifies an adapter failure.
type ErrorCode string

const (
	CodeUnknown           ErrorCode = "unknown"
	CodeNetwork           ErrorCode = "network"
	CodeHTTPStatus        ErrorCode = "http_status"
	CodeRateLimited       ErrorCode = "rate_limited"
	CodeTimeout           ErrorCode = "timeout"
	CodeCancelled         ErrorCode = "cancelled"
	CodeMalformed         ErrorCode = "malformed"
	CodeParse             ErrorCode = "parse"
	CodeMissingCredential ErrorCode = "missing_credential"
	CodeMissingFixture    ErrorCode = "missing_fixture"
	CodeNotFound          ErrorCode = "not_found"
	CodePanic             ErrorCode = "panic"
)

// AdapterError is a classified failure raised inside a source adapter. Its
// message is the wrapped error's; the code travels separately in Code.
type AdapterError struct {
	Code ErrorCode
	Err  error
}

func (e *AdapterError) Error() string {
	return e.Err.Error()
}

func (e *AdapterError) Unwrap() error { return e.Err }

// AdapterErr wraps err with code.
func AdapterErr(code ErrorCode, err error) error {
	return &AdapterError{Code: code, Err: err}
}

// AdapterErrorf formats an error and wraps it with code.
func AdapterErrorf(code ErrorCode, format string, args ...any) error {
	return &AdapterError{Code: code, Err: fmt.Errorf(format, args...)}
}

// CodeOf returns the code of the first AdapterError in err's chain.
// Context errors map to timeout or cancelled.
func CodeOf(err error) ErrorCode {
	var ae *AdapterError
	switch {
	case errors.As(err, &ae):
		return ae.Code
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	case errors.Is(err, context.Canceled):
		return CodeCancelled
	default:
		return CodeUnknown
	}
}

// Stage names the pipeline step where a ticker failed.
type Stage string

const (
	StageCollect  Stage = "collect"
	StageAssemble Stage = "assemble"
	StagePersist  Stage = "persist"
)

// TickerError attributes a failure to one ticker and stage.
type TickerError struct {
	Ticker string
	Stage  Stage
	Err    error
}

func (e *TickerError) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Ticker, e.Stage, e.Err)
}

func (e *TickerError) Unwrap() error { return e.Err }
