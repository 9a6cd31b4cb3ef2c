// Package soundprint wires the fingerprinting pipeline (pkg/soundprint/fingerprint),
// the inverted index (pkg/soundprint/index) and the voting matcher
// (pkg/soundprint/match) into an enroll/query orchestrator.
package soundprint

import "github.com/devrindt/soundprint/pkg/soundprint/apperr"

// Kind and Error are re-exported from apperr so callers of this package
// never need to import the leaf package directly.
type (
	Kind  = apperr.Kind
	Error = apperr.Error
)

const (
	KindInvalidInput      = apperr.KindInvalidInput
	KindMalformedAudio    = apperr.KindMalformedAudio
	KindMalformedDatabase = apperr.KindMalformedDatabase
	KindInsufficientData  = apperr.KindInsufficientData
	KindIoFailure         = apperr.KindIoFailure
)

// NewError builds an *Error of the given kind wrapping cause (which may
// be nil).
func NewError(kind Kind, msg string, cause error) *Error {
	return apperr.New(kind, msg, cause)
}
