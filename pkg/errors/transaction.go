package errors

// TransactionError is a specialized error type for the batch transactional
// protocol: reservation, rollback, and retry exhaustion across a bulk
// store/update call.
type TransactionError struct {
	*baseError

	batchID string // transaction id, also recorded as the recovery Event's OperationContext
	operation string // "ExecuteTransaction", or the name passed to ExecuteWithRetry
	fileCount int // number of records in the batch
	retryAttempt int // which attempt this failure occurred on, if retried
	rolledBack bool // whether rollback was attempted
	rollbackError error // non-nil if rollback itself failed
}

// NewTransactionError creates a new transaction-specific error.
func NewTransactionError(err error, code ErrorCode, msg string) *TransactionError {
	return &TransactionError{baseError: NewBaseError(err, code, msg)}
}

func (te *TransactionError) WithMessage(msg string) *TransactionError {
	te.baseError.WithMessage(msg)
	return te
}

func (te *TransactionError) WithCode(code ErrorCode) *TransactionError {
	te.baseError.WithCode(code)
	return te
}

func (te *TransactionError) WithDetail(key string, value any) *TransactionError {
	te.baseError.WithDetail(key, value)
	return te
}

// WithBatchID records the correlation id for the failed batch.
func (te *TransactionError) WithBatchID(id string) *TransactionError {
	te.batchID = id
	return te
}

// WithOperation records which bulk operation raised the error.
func (te *TransactionError) WithOperation(op string) *TransactionError {
	te.operation = op
	return te
}

// WithFileCount records how many records were in the failed batch.
func (te *TransactionError) WithFileCount(n int) *TransactionError {
	te.fileCount = n
	return te
}

// WithRetryAttempt records which retry attempt produced this error.
func (te *TransactionError) WithRetryAttempt(n int) *TransactionError {
	te.retryAttempt = n
	return te
}

// WithRollback records whether rollback was attempted and whether it itself
// failed.
func (te *TransactionError) WithRollback(attempted bool, rollbackErr error) *TransactionError {
	te.rolledBack = attempted
	te.rollbackError = rollbackErr
	return te
}

func (te *TransactionError) BatchID() string { return te.batchID }
func (te *TransactionError) Operation() string { return te.operation }
func (te *TransactionError) FileCount() int { return te.fileCount }
func (te *TransactionError) RetryAttempt() int { return te.retryAttempt }
func (te *TransactionError) RolledBack() bool { return te.rolledBack }
func (te *TransactionError) RollbackError() error { return te.rollbackError }

// NewBatchAbortedError reports that a batch was rejected before any bytes
// left memory — a full-batch rejection, not a partial commit.
func NewBatchAbortedError(operation, batchID string, fileCount int, cause error) *TransactionError {
	return NewTransactionError(cause, ErrorCodeTransactionAborted, "batch aborted before commit").
	WithOperation(operation).
	WithBatchID(batchID).
	WithFileCount(fileCount)
}
