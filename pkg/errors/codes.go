package errors

// ErrorCode represents a standardized way to categorize different types of errors.
type ErrorCode string

// Base error codes cover the fundamental categories of failures that can
// occur anywhere in the system.
const (
	// ErrorCodeIO represents failures in input/output operations across any
	// system boundary: segment file reads and writes, directory scans, and
	// network operations between client and server.
	ErrorCodeIO ErrorCode = "IO_ERROR"

	// ErrorCodeInvalidInput represents caller-side errors where the provided
	// configuration or arguments don't meet the system's requirements.
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrorCodeInternal represents unexpected failures that don't fit into
	// other categories and shouldn't occur during normal operation.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Engine error codes cover the failure modes of the log-structured store.
const (
	// ErrorCodeDecode indicates a malformed or truncated record. It is
	// surfaced when resolving an index entry on a targeted read; a record
	// that fails to decode while replaying a segment on open is reported as
	// ErrorCodeSegmentCorrupted instead.
	ErrorCodeDecode ErrorCode = "DECODE_ERROR"

	// ErrorCodeKeyNotFound is returned by a remove against an absent key.
	ErrorCodeKeyNotFound ErrorCode = "KEY_NOT_FOUND"

	// ErrorCodeUnexpectedRecord indicates that an index entry points at a
	// byte range which decodes to a Remove record. The index only ever maps
	// keys to Set records, so this signals corruption.
	ErrorCodeUnexpectedRecord ErrorCode = "UNEXPECTED_RECORD"

	// ErrorCodeSegmentCorrupted indicates that a segment file's contents are
	// damaged in a way that prevents the store from resuming.
	ErrorCodeSegmentCorrupted ErrorCode = "SEGMENT_CORRUPTED"
)

// Process error codes cover failures around the engine rather than inside it.
const (
	// ErrorCodeEngineMismatch indicates that the engine requested at startup
	// differs from the one recorded in the sentinel file of the working
	// directory. Running a different engine over the same directory would
	// misread its files.
	ErrorCodeEngineMismatch ErrorCode = "ENGINE_MISMATCH"

	// ErrorCodeRemote carries an error string received over the wire from
	// the server.
	ErrorCodeRemote ErrorCode = "REMOTE_ERROR"
)
