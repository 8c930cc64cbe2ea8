package errors

// ErrorCode represents a standardized way to categorize different types of errors.
type ErrorCode string

// Base error codes represent the fundamental categories of failures that can
// occur across any software system. These codes provide the foundation layer
// of error classification.
const (
	// ErrorCodeIO represents failures in input/output operations across any
	// system boundary. This includes growing or flushing the memory-mapped
	// data file and reading/writing the index snapshot.
	ErrorCodeIO ErrorCode = "IO_ERROR"

	// ErrorCodeInvalidInput represents client-side errors where the provided
	// data doesn't meet the system's requirements or constraints. This maps
	// to HTTP 400-series errors and indicates problems with the request itself
	// rather than system failures.
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrorCodeInternal represents unexpected system failures that don't fit
	// into other categories. These are the equivalent of HTTP 500 errors and
	// indicate bugs, assertion failures, or other programming errors that
	// shouldn't occur during normal operation.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"

	// ErrorCodeResourceExhausted is returned when the memory-mapped data
	// file cannot grow any further because it has hit its configured
	// maximum size.
	ErrorCodeResourceExhausted ErrorCode = "RESOURCE_EXHAUSTED"
)

// Storage-specific error codes extend the base error taxonomy to handle the
// unique failure modes of the append-only memory-mapped data region.
const (
	// ErrorCodeSegmentCorrupted indicates that the data file's content has
	// been damaged or is in an inconsistent state.
	ErrorCodeSegmentCorrupted ErrorCode = "SEGMENT_CORRUPTED"

	// ErrorCodeHeaderReadFailure occurs when the system cannot read the
	// magic/version header of the index snapshot file.
	ErrorCodeHeaderReadFailure ErrorCode = "HEADER_READ_FAILURE"

	// ErrorCodePayloadReadFailure indicates problems reading record bytes
	// from the data file after the offset itself resolved.
	ErrorCodePayloadReadFailure ErrorCode = "PAYLOAD_READ_FAILURE"

	// ErrorCodeRecoveryFailed indicates that the storage system's attempt to
	// recover from a previous failure was unsuccessful. This represents a
	// compound failure where both the original problem and the recovery
	// mechanism have failed, creating a more serious operational situation.
	ErrorCodeRecoveryFailed ErrorCode = "STORAGE_RECOVERY_FAILED"

	// ErrorCodePermissionDenied indicates insufficient permissions to access a resource.
	// This is distinct from generic IO errors because it has a specific resolution path:
	// the user needs to adjust file/directory permissions or run with elevated privileges.
	ErrorCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// ErrorCodeDiskFull indicates that the storage device has run out of space.
	// This requires specific handling like cleanup operations or alerting administrators.
	ErrorCodeDiskFull ErrorCode = "DISK_FULL"

	// ErrorCodeFilesystemReadonly indicates that the filesystem is mounted read-only.
	// This requires administrative intervention to remount the filesystem with write permissions.
	ErrorCodeFilesystemReadonly ErrorCode = "FILESYSTEM_READONLY"

	// ErrorCodeOutOfBounds indicates a read was attempted past the data
	// file's logical write offset.
	ErrorCodeOutOfBounds ErrorCode = "OUT_OF_BOUNDS"

	// ErrorCodeStorageIOFailure covers os.File-level failures against the
	// data file: stat, truncate, open, close.
	ErrorCodeStorageIOFailure ErrorCode = "STORAGE_IO_FAILURE"

	// ErrorCodeStorageMapFailure covers mmap/munmap failures against the
	// data file's memory mapping.
	ErrorCodeStorageMapFailure ErrorCode = "STORAGE_MAP_FAILURE"

	// ErrorCodeStorageSyncFailure covers failures flushing the data file's
	// dirty mapped pages to stable storage.
	ErrorCodeStorageSyncFailure ErrorCode = "STORAGE_SYNC_FAILURE"
)

// Index-specific error codes.
const (
	// ErrorCodeIndexKeyNotFound indicates a lookup against a key that has no
	// corresponding entry in any index.
	ErrorCodeIndexKeyNotFound ErrorCode = "INDEX_KEY_NOT_FOUND"

	// ErrorCodeIndexCorrupted indicates the in-memory or on-disk index
	// structures are no longer internally consistent.
	ErrorCodeIndexCorrupted ErrorCode = "INDEX_CORRUPTED"

	// ErrorCodeSnapshotVersionMismatch indicates an index snapshot file's
	// magic or version header didn't match what this build expects.
	ErrorCodeSnapshotVersionMismatch ErrorCode = "SNAPSHOT_VERSION_MISMATCH"
)

// Cache-specific error codes.
const (
	// ErrorCodeCacheCapacityExceeded indicates an insert could not be
	// satisfied even after evicting every other entry.
	ErrorCodeCacheCapacityExceeded ErrorCode = "CACHE_CAPACITY_EXCEEDED"
)

// Transaction, recovery, and configuration error codes, covering the
// batch-rollback and retry/recovery protocol.
const (
	// ErrorCodeTransactionAborted indicates a batch was rolled back after a
	// partial failure.
	ErrorCodeTransactionAborted ErrorCode = "TRANSACTION_ABORTED"

	// ErrorCodeRetryExhausted indicates execute-with-retry ran out of
	// attempts without the wrapped operation succeeding.
	ErrorCodeRetryExhausted ErrorCode = "RETRY_EXHAUSTED"

	// ErrorCodeMemoryPressure indicates a memory-kind error surfaced after
	// automatic cache cleanup failed to relieve pressure.
	ErrorCodeMemoryPressure ErrorCode = "MEMORY_PRESSURE"

	// ErrorCodeConfigurationInvalid indicates the engine was started with an
	// invalid or inconsistent set of tuning options.
	ErrorCodeConfigurationInvalid ErrorCode = "CONFIGURATION_INVALID"

	// ErrorCodeEngineClosed indicates an operation was attempted against an
	// engine that is not in the Open state.
	ErrorCodeEngineClosed ErrorCode = "ENGINE_CLOSED"
)
