package nimg

import (
	"errors"
	"fmt"
)

// Image-level validation errors.
var (
	ErrHeaderSize   = errors.New("nimg: bad image header size")
	ErrHeaderMagic  = errors.New("nimg: bad image header magic")
	ErrVersion      = errors.New("nimg: unsupported image version")
	ErrNameTooLong  = errors.New("nimg: image name too long")
	ErrTooManyParts = errors.New("nimg: too many image parts")
)

// Part-level validation errors.
var (
	ErrPartSize        = errors.New("nimg: bad part header size")
	ErrPartMagic       = errors.New("nimg: bad part header magic")
	ErrPartType        = errors.New("nimg: bad part type")
	ErrPartCompression = errors.New("nimg: bad part compression mode")
)

// ErrChecksumMismatch matches every ChecksumError via errors.Is.
var ErrChecksumMismatch = errors.New("nimg: checksum mismatch")

// ErrInvalidPart matches every PartError via errors.Is.
var ErrInvalidPart = errors.New("nimg: invalid part")

// ErrInsufficientData is returned by SliceReader and SliceWriter
// fixed-width operations that run past the end of the buffer. A zero
// length request never produces it.
var ErrInsufficientData = errors.New("nimg: insufficient data")

// ErrOpaquePayload is returned when a compression operation is asked to
// interpret or produce a libarchive payload, which this package treats
// as an opaque byte stream.
var ErrOpaquePayload = errors.New("nimg: opaque libarchive payload")

// ChecksumError reports a stored digest that does not match the digest
// recomputed over the actual bytes. It is used for both the image
// header's trailing digest and per-part payload digests.
type ChecksumError struct {
	Want uint32 // digest stored in the header
	Got  uint32 // digest computed over the bytes present
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("nimg: checksum mismatch: expected 0x%08x, computed 0x%08x", e.Want, e.Got)
}

func (e *ChecksumError) Is(target error) bool { return target == ErrChecksumMismatch }

// PartError wraps a part-level failure with the index of the offending
// part slot, preserving the cause for errors.Is / errors.As.
type PartError struct {
	Index int
	Err   error
}

func (e *PartError) Error() string {
	return fmt.Sprintf("nimg: part %d: %v", e.Index, e.Err)
}

// Unwrap returns the part-level cause.
func (e *PartError) Unwrap() error { return e.Err }

func (e *PartError) Is(target error) bool { return target == ErrInvalidPart }
