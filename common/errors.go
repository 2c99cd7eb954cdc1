package common

import "errors"

// Domain errors shared by the indexing core. Callers match them with errors.Is.
var (
	ErrInvalidDateFormat = errors.New("invalid date format")
	ErrIndexUnavailable  = errors.New("search index unavailable")
	ErrJobClaimConflict  = errors.New("job already claimed")
	ErrInvalidLimit      = errors.New("invalid limit")
	ErrInvalidQuery      = errors.New("invalid search query")
	ErrResearchNotFound  = errors.New("research not found")
	ErrJobNotFound       = errors.New("index job not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)
