package operations

import (
	"time"
)

// Pipeline step identifiers
const (
	StageIDLoad      = "load"
	StageIDGroup     = "group"
	StageIDAggregate = "aggregate"
	StageIDEmit      = "emit"
)

// Pipeline step names
const (
	StageNameLoad      = "Load Workbooks"
	StageNameGroup     = "Group Quarters"
	StageNameAggregate = "Aggregate Half-Years"
	StageNameEmit      = "Emit Output"
)

// Context keys for operation state
const (
	ContextKeyCollection = "collection"
	ContextKeySummary    = "summary"
	ContextKeyRecords    = "records"
	ContextKeyQuarters   = "quarters"
	ContextKeyGroups     = "groups"
	ContextKeyTable      = "table"
	ContextKeyLog        = "validation_log"
	ContextKeyResult     = "result"
)

// Default timeouts
const (
	DefaultStageTimeout = 10 * time.Minute
	DefaultLoadTimeout  = 30 * time.Minute
)

// RetryConfig defines retry behavior for steps. Only errors marked
// retryable are attempted again.
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
}

// NewRetryConfig returns the default retry configuration
func NewRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

// Collection is one folder of source workbooks
type Collection struct {
	ID  string `json:"id"`
	Dir string `json:"dir,omitempty"` // defaults to <data dir>/<ID>
}
