package dbxpull

import "fmt"

// Status classifies a failure. Every error returned by this package is an
// Error carrying one of these codes; the underlying driver failure is
// preserved unmodified and reachable with errors.Unwrap / errors.As.
type Status uint8

const (
	StatusUnknown Status = iota // Unknown
	// StatusInvalidConfig means the connection parameters were rejected
	// before any connection attempt was made.
	StatusInvalidConfig
	// StatusConnection means the warehouse endpoint was unreachable or the
	// credentials were rejected.
	StatusConnection
	// StatusQuery means the query was malformed or the session was not in a
	// usable state when the query was submitted.
	StatusQuery
	// StatusConversion means the fetched rows could not be reshaped into a
	// table (for example a row width inconsistent with the column count).
	StatusConversion
)

func (s Status) String() string {
	switch s {
	case StatusInvalidConfig:
		return "Invalid Config"
	case StatusConnection:
		return "Connection"
	case StatusQuery:
		return "Query"
	case StatusConversion:
		return "Conversion"
	default:
		return "Unknown"
	}
}

// Error is the error type returned by all operations in this package.
type Error struct {
	Code Status
	Msg  string
	// Err is the original failure from the underlying client, if any.
	Err error
}

func (e Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e Error) Unwrap() error { return e.Err }

func errorf(code Status, format string, args ...any) Error {
	return Error{Code: code, Msg: "[dbxpull] " + fmt.Sprintf(format, args...)}
}

func wrapError(err error, code Status, format string, args ...any) Error {
	return Error{Code: code, Msg: "[dbxpull] " + fmt.Sprintf(format, args...), Err: err}
}
