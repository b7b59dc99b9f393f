package domain

import "errors"

// Sentinel errors classifying failures at the external service boundaries.
var (
	// ErrConfiguration marks a missing or invalid required setting. Fatal at startup.
	ErrConfiguration = errors.New("configuration error")

	// ErrTransport marks a network, timeout or non-2xx failure from an external service.
	ErrTransport = errors.New("transport error")

	// ErrParse marks a response whose shape could not be understood.
	ErrParse = errors.New("parse error")
)

// ErrorKind names the class of a pipeline error.
type ErrorKind string

const (
	KindNone          ErrorKind = ""
	KindConfiguration ErrorKind = "configuration"
	KindTransport     ErrorKind = "transport"
	KindParse         ErrorKind = "parse"
	KindUnknown       ErrorKind = "unknown"
)

// KindOf classifies err against the sentinel taxonomy.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrTransport):
		return KindTransport
	case errors.Is(err, ErrParse):
		return KindParse
	default:
		return KindUnknown
	}
}
