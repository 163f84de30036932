package recorder

import "github.com/quantrail/advisor/types"

// Noop discards everything. Used when no database path is configured.
type Noop struct{}

func (Noop) RecordClosedTrade(types.ExecutedTrade) error { return nil }
func (Noop) Close() error                                { return nil }
