// Package apperr defines the typed error taxonomy shared by every
// soundprint subsystem, so that index, match and fingerprint code can all
// report failures without importing the root orchestrator package.
package apperr

import "fmt"

// Kind classifies an error so callers can branch on failure category
// without string matching.
type Kind int

const (
	// KindInvalidInput means an argument violated a stated constraint
	// (FFT size not a power of two, window_size > samples, and so on).
	KindInvalidInput Kind = iota
	// KindMalformedAudio means the WAV header was missing required
	// chunks, used an unsupported format, or the data was truncated.
	KindMalformedAudio
	// KindMalformedDatabase means the index file was truncated, the
	// metadata file was unparseable, or the two disagreed on song ids.
	KindMalformedDatabase
	// KindInsufficientData means a query produced zero hashes.
	KindInsufficientData
	// KindIoFailure means the underlying file could not be opened,
	// read, or written.
	KindIoFailure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindMalformedAudio:
		return "malformed_audio"
	case KindMalformedDatabase:
		return "malformed_database"
	case KindInsufficientData:
		return "insufficient_data"
	case KindIoFailure:
		return "io_failure"
	default:
		return "unknown"
	}
}

// Error is a typed soundprint failure. Every library operation that can
// fail returns either a value or an *Error; nothing is retried
// internally.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error of the given kind wrapping cause (which may be
// nil).
func New(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}
