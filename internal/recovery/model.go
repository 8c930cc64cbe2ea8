package recovery

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies an error for recovery-dispatch purposes.
type Kind string

const (
	KindTransaction Kind = "TRANSACTION"
	KindSerialization Kind = "SERIALIZATION"
	KindIO Kind = "IO"
	KindMemory Kind = "MEMORY"
	KindValidation Kind = "VALIDATION"
	KindIndex Kind = "INDEX"
	KindConfiguration Kind = "CONFIGURATION"
	KindConnection Kind = "CONNECTION"
	KindUnknown Kind = "UNKNOWN"
)

// Event is one entry in the handler's bounded error history.
type Event struct {
	Timestamp time.Time
	Kind Kind
	Message string
	OperationContext string
	BatchID *uuid.UUID
	FileCount int
	RetryAttempt int
	RecoveryAttempted bool
	Resolved bool
}

// Trend classifies the recent error rate against the full history.
type Trend string

const (
	TrendImproving Trend = "IMPROVING"
	TrendStable Trend = "STABLE"
	TrendDegrading Trend = "DEGRADING"
	TrendCritical Trend = "CRITICAL"
)

// Stats is the point-in-time statistics snapshot Handler.Statistics returns.
type Stats struct {
	CountsByKind map[Kind]uint64
	Total uint64

	TransactionSuccessRate float64
	RollbackSuccessRate float64
	RetrySuccessRate float64
	RecoverySuccessRate float64

	ErrorsPerHour float64
	MostCommon Kind
	Trend Trend
	StabilityScore float64
}

// Config parameterizes a Handler's retry policy and history size.
type Config struct {
	BackoffBase time.Duration
	BackoffMax time.Duration
	MaxRetryAttempts int
	HistorySize int
}
