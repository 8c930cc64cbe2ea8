package errors

// StorageError is a specialized error type for failures in the memory-mapped
// data file: growth, flush, and bounds-checked reads. It embeds baseError to
// inherit the standard error functionality, then adds fields that pinpoint
// exactly where in the file a problem happened.
type StorageError struct {
	*baseError
	offset   int64  // Byte offset within the data file where the problem happened.
	length   int    // Length of the read or append that failed, if applicable.
	fileName string // Name of the file that caused the issue.
	path     string // Path of the file that caused the issue.
}

// NewStorageError creates a new storage-specific error.
func NewStorageError(err error, code ErrorCode, msg string) *StorageError {
	return &StorageError{baseError: NewBaseError(err, code, msg)}
}

// WithOffset records the byte position where the error occurred.
func (se *StorageError) WithOffset(offset int64) *StorageError {
	se.offset = offset
	return se
}

// WithLength records the length of the read or append involved in the error.
func (se *StorageError) WithLength(length int) *StorageError {
	se.length = length
	return se
}

// WithFileName captures which file was being processed when the error occurred.
func (se *StorageError) WithFileName(fileName string) *StorageError {
	se.fileName = fileName
	return se
}

// WithPath captures which path was being processed when the error occurred.
func (se *StorageError) WithPath(path string) *StorageError {
	se.path = path
	return se
}

// Offset returns the byte offset within the data file where the error happened.
func (se *StorageError) Offset() int64 {
	return se.offset
}

// Length returns the length of the read or append involved in the error.
func (se *StorageError) Length() int {
	return se.length
}

// FileName returns the name of the file that was being processed.
func (se *StorageError) FileName() string {
	return se.fileName
}

// Path returns the path of the file that was being processed.
func (se *StorageError) Path() string {
	return se.path
}
