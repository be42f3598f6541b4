package domain

import "errors"

// Domain errors represent error conditions in the keyframer domain.
// Adapters wrap them with context; callers check them with errors.Is.
var (
	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("keyframer: invalid configuration")

	// ErrUnsupportedMethod is returned when a hash method tag is unknown.
	ErrUnsupportedMethod = errors.New("keyframer: unsupported hash method")

	// ErrInvalidCropping is returned for a cropping fraction outside [0, 0.5).
	ErrInvalidCropping = errors.New("keyframer: invalid cropping fraction")

	// ErrMethodMismatch is returned when hashes of different methods are compared.
	ErrMethodMismatch = errors.New("keyframer: hash method mismatch")

	// ErrInvalidHash is returned when a textual hash cannot be parsed.
	ErrInvalidHash = errors.New("keyframer: invalid hash value")

	// ErrParse is returned when a store document is malformed.
	ErrParse = errors.New("keyframer: malformed store document")

	// ErrStoreNotFound is returned when a store file does not exist.
	ErrStoreNotFound = errors.New("keyframer: store file not found")

	// ErrSourceNotFound is returned when a frame source does not exist.
	ErrSourceNotFound = errors.New("keyframer: frame source not found")

	// ErrSourceNotReadable is returned when a frame source cannot be opened.
	ErrSourceNotReadable = errors.New("keyframer: frame source not readable")

	// ErrDecode is returned when a frame cannot be decoded mid-sequence.
	ErrDecode = errors.New("keyframer: frame decode failed")

	// ErrEmptyFrame is returned when a frame has no pixels to hash.
	ErrEmptyFrame = errors.New("keyframer: empty frame")

	// ErrAlreadyRunning is returned when starting a service that is running.
	ErrAlreadyRunning = errors.New("keyframer: already running")

	// ErrNotRunning is returned when stopping a service that is not running.
	ErrNotRunning = errors.New("keyframer: not running")

	// ErrShutdownTimeout is returned when in-flight work outlives the shutdown deadline.
	ErrShutdownTimeout = errors.New("keyframer: shutdown timed out")
)
