// internal/classify/errors.go
package classify

import "errors"

var (
	// ErrEmptyInput is returned when the uploaded payload has no bytes.
	ErrEmptyInput = errors.New("image payload is empty")

	// ErrDecode is returned when the payload is not a decodable image.
	ErrDecode = errors.New("image could not be decoded")

	// ErrUnsupportedFormat is returned when a decoded image cannot be
	// coerced to a 3-channel RGB frame of usable size.
	ErrUnsupportedFormat = errors.New("image format not supported")
)
