package model

import "errors"

// Error kinds raised by the pipeline.
//
// ErrArchiveUnreadable and ErrReferenceListMissing abort the run. Malformed
// documents are skipped, unrecoverable tokens dropped, failed lookups marked
// unresolved; those are only counted in RunSummary. ErrIntegrityMismatch is a
// warning.
var (
	ErrArchiveUnreadable    = errors.New("archive unreadable")
	ErrMalformedDocument    = errors.New("malformed document")
	ErrUnrecoverableToken   = errors.New("unrecoverable token")
	ErrIntegrityMismatch    = errors.New("integrity mismatch")
	ErrGlossLookup          = errors.New("gloss lookup failed")
	ErrReferenceListMissing = errors.New("reference list missing")
)
