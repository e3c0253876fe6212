package tabular

import "errors"

// Structural import failures; nothing is imported when one is returned.
var (
	ErrNoMissionsSheet = errors.New("no recognizable missions sheet")
	ErrNoDataRows      = errors.New("missions sheet has no data rows")
)
