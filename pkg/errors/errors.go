// Package errors implements mediacat's structured error taxonomy. It
// addresses the fundamental challenge that generic error handling
// presents in complex systems: when an error occurs, the engine, the
// recovery handler, and operators downstream need much more than "something
// went wrong" — they need to know what failed, why, where, and what
// automatic recovery action (if any) applies.
//
// Architecture:
//
// The error system is built around a hierarchical structure that starts
// with a foundational baseError and extends into domain-specific error
// types: ValidationError, StorageError, IndexError, CacheError, and
// TransactionError. Every domain type embeds *baseError so the fluent
// WithMessage/WithCode/WithDetail chain is available everywhere, while each
// type adds the context specific to its layer — a StorageError knows the
// byte offset and file path involved, an IndexError knows the key and
// index bucket, a CacheError knows the byte-budget accounting, and a
// TransactionError knows the batch id and retry/rollback outcome.
//
// recovery.Handler classifies incoming errors against this taxonomy
// to decide which recovery action to dispatch: IO/Connection errors retry
// with backoff, Transaction errors roll back, Index errors trigger index
// reconstruction, Memory errors trigger cache cleanup, and Configuration
// errors are fatal at startup but resettable at runtime.
package errors

import (
	stdErrors "errors"
	"os"
	"syscall"
)

// IsValidationError checks if the given error is a ValidationError or contains one in its error chain.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return stdErrors.As(err, &ve)
}

// IsStorageError determines if an error originated in the memory-mapped
// data file layer: growth, flush, or bounds-checked reads.
func IsStorageError(err error) bool {
	var se *StorageError
	return stdErrors.As(err, &se)
}

// IsIndexError identifies errors that occurred during index-manager
// operations such as key lookups, bucket updates, or snapshot persistence.
func IsIndexError(err error) bool {
	var ie *IndexError
	return stdErrors.As(err, &ie)
}

// IsCacheError identifies errors that occurred in the memory-bounded LRU
// cache layer.
func IsCacheError(err error) bool {
	var ce *CacheError
	return stdErrors.As(err, &ce)
}

// IsTransactionError identifies errors that occurred during the batch
// transactional protocol: reservation, rollback, or retry exhaustion.
func IsTransactionError(err error) bool {
	var te *TransactionError
	return stdErrors.As(err, &te)
}

// AsValidationError safely extracts a ValidationError from an error chain.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stdErrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// AsStorageError extracts StorageError context from an error chain,
// providing access to the offset, length, file name, and path involved.
func AsStorageError(err error) (*StorageError, bool) {
	var se *StorageError
	if stdErrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// AsIndexError extracts IndexError context, providing access to the key,
// index kind, and operation involved.
func AsIndexError(err error) (*IndexError, bool) {
	var ie *IndexError
	if stdErrors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// AsCacheError extracts CacheError context, providing access to the cache
// name and byte-budget accounting involved.
func AsCacheError(err error) (*CacheError, bool) {
	var ce *CacheError
	if stdErrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// AsTransactionError extracts TransactionError context, providing access to
// the batch id, retry attempt, and rollback outcome.
func AsTransactionError(err error) (*TransactionError, bool) {
	var te *TransactionError
	if stdErrors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from any error that supports it, or
// returns ErrorCodeInternal for errors that don't have specific codes.
func GetErrorCode(err error) ErrorCode {
	if ve, ok := AsValidationError(err); ok {
		return ve.Code()
	}
	if se, ok := AsStorageError(err); ok {
		return se.Code()
	}
	if ie, ok := AsIndexError(err); ok {
		return ie.Code()
	}
	if ce, ok := AsCacheError(err); ok {
		return ce.Code()
	}
	if te, ok := AsTransactionError(err); ok {
		return te.Code()
	}
	return ErrorCodeInternal
}

// GetErrorDetails extracts structured details from any error that supports
// them, returning an empty map for errors without details.
func GetErrorDetails(err error) map[string]any {
	if ve, ok := AsValidationError(err); ok {
		if details := ve.Details(); details != nil {
			return details
		}
	}
	if se, ok := AsStorageError(err); ok {
		if details := se.Details(); details != nil {
			return details
		}
	}
	if ie, ok := AsIndexError(err); ok {
		if details := ie.Details(); details != nil {
			return details
		}
	}
	if ce, ok := AsCacheError(err); ok {
		if details := ce.Details(); details != nil {
			return details
		}
	}
	if te, ok := AsTransactionError(err); ok {
		if details := te.Details(); details != nil {
			return details
		}
	}
	return make(map[string]any)
}

// ClassifyDirectoryCreationError analyzes directory creation failures and
// returns appropriate error codes based on the underlying system error.
func ClassifyDirectoryCreationError(err error, path string) error {
	if os.IsPermission(err) {
		return NewStorageError(
			err, ErrorCodePermissionDenied,
			"insufficient permissions to create data directory",
		).WithPath(path).
		WithDetail("operation", "directory_creation").
		WithDetail("suggestion", "check directory permissions or run with elevated privileges")
	}

	if pathErr, ok := err.(*os.PathError); ok {
		if errno, ok := pathErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ENOSPC:
				return NewStorageError(
					err, ErrorCodeDiskFull,
					"insufficient disk space to create data directory",
				).WithPath(path).
				WithDetail("operation", "directory_creation").
				WithDetail("suggestion", "free up disk space or choose a different location")
			case syscall.EROFS:
				return NewStorageError(
					err, ErrorCodeFilesystemReadonly,
					"cannot create directory on read-only filesystem",
				).WithPath(path).
				WithDetail("operation", "directory_creation").
				WithDetail("suggestion", "remount filesystem with write permissions")
			}
		}
	}

	return NewStorageError(
		err, ErrorCodeIO, "failed to create data directory",
	).WithPath(path).WithDetail("operation", "directory_creation")
}

// ClassifyFileOpenError analyzes data/index file opening failures and
// returns appropriate error codes based on the underlying system error.
func ClassifyFileOpenError(err error, filePath, fileName string) error {
	if os.IsPermission(err) {
		return NewStorageError(
			err, ErrorCodePermissionDenied,
			"insufficient permissions to open data file",
		).WithPath(filePath).
		WithFileName(fileName).
		WithDetail("operation", "file_open").
		WithDetail("suggestion", "check file permissions or run with elevated privileges")
	}

	if pathErr, ok := err.(*os.PathError); ok {
		if errno, ok := pathErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ENOSPC:
				return NewStorageError(
					err, ErrorCodeDiskFull,
					"insufficient disk space to create data file",
				).WithPath(filePath).
				WithFileName(fileName).
				WithDetail("operation", "file_open").
				WithDetail("suggestion", "free up disk space")
			case syscall.EROFS:
				return NewStorageError(
					err, ErrorCodeFilesystemReadonly,
					"cannot create file on read-only filesystem",
				).WithPath(filePath).
				WithFileName(fileName).
				WithDetail("operation", "file_open").
				WithDetail("suggestion", "remount filesystem with write permissions")
			}
		}
	}

	return NewStorageError(err, ErrorCodeIO, "failed to open data file").
	WithPath(filePath).
	WithFileName(fileName).
	WithDetail("operation", "file_open")
}

// ClassifySyncError analyzes flush/msync failures and returns appropriate
// error codes. Sync failures can indicate anything from disk-space
// exhaustion to filesystem corruption.
func ClassifySyncError(err error, fileName, filePath string, offset int64) error {
	if pathErr, ok := err.(*os.PathError); ok {
		if errno, ok := pathErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ENOSPC:
				return NewStorageError(
					err, ErrorCodeDiskFull,
					"cannot sync file: insufficient disk space",
				).WithFileName(fileName).
				WithPath(filePath).
				WithOffset(offset).
				WithDetail("operation", "file_sync").
				WithDetail("suggestion", "free up disk space before continuing")
			case syscall.EROFS:
				return NewStorageError(
					err, ErrorCodeFilesystemReadonly,
					"cannot sync file: filesystem is read-only",
				).WithFileName(fileName).
				WithPath(filePath).
				WithOffset(offset).
				WithDetail("operation", "file_sync").
				WithDetail("suggestion", "remount filesystem with write permissions")
			case syscall.EIO:
				return NewStorageError(
					err, ErrorCodeIO,
					"I/O error during file sync - possible hardware or corruption issue",
				).WithFileName(fileName).
				WithPath(filePath).
				WithOffset(offset).
				WithDetail("operation", "file_sync").
				WithDetail("severity", "high")
			}
		}
	}

	return NewStorageError(
		err, ErrorCodeIO, "failed to sync data file to disk",
	).WithFileName(fileName).WithPath(filePath).WithOffset(offset).
	WithDetail("operation", "file_sync")
}
