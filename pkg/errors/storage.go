package errors

// StorageError is a specialized error type for storage-related operations.
// It embeds baseError to inherit all the standard error functionality, then adds
// storage-specific fields that help pinpoint exactly where problems occurred.
type StorageError struct {
	*baseError
	generation uint64 // Which segment generation was being accessed when the error occurred.
	offset     int64  // Byte offset within the segment where the problem happened.
	path       string // Path of the file that caused the issue.
}

// NewStorageError creates a new storage-specific error.
func NewStorageError(err error, code ErrorCode, msg string) *StorageError {
	return &StorageError{baseError: NewBaseError(err, code, msg)}
}

// WithGeneration sets which segment generation was involved in the error.
func (se *StorageError) WithGeneration(generation uint64) *StorageError {
	se.generation = generation
	return se
}

// WithOffset records the byte position where the error occurred.
func (se *StorageError) WithOffset(offset int64) *StorageError {
	se.offset = offset
	return se
}

// WithPath captures which path was being processed when the error occurred.
func (se *StorageError) WithPath(path string) *StorageError {
	se.path = path
	return se
}

// Generation returns the segment generation where the error occurred.
func (se *StorageError) Generation() uint64 {
	return se.generation
}

// Offset returns the byte offset within the segment where the error happened.
// Combined with Generation, this gives the exact location of the problem.
func (se *StorageError) Offset() int64 {
	return se.offset
}

// Path returns the path of the file that was being processed.
func (se *StorageError) Path() string {
	return se.path
}
