// Package recorder persists the closed-trade log. The engine works purely in
// memory; a recorder is an optional sink for post-hoc analysis.
package recorder

import "github.com/quantrail/advisor/types"

// Recorder receives every trade the lifecycle manager closes.
type Recorder interface {
	RecordClosedTrade(trade types.ExecutedTrade) error
	Close() error
}
