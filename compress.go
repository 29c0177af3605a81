package nimg

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression plumbing for the tooling around the codec. The codec
// itself never touches payload bytes; creation tools use
// NewPayloadWriter to produce compressed parts and extraction/flashing
// tools use NewPayloadReader to undo them. Libarchive parts are opaque:
// both directions refuse them, and NewSniffedReader offers best-effort
// recognition of the common filters by magic number.

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// NewPayloadWriter returns a WriteCloser that filters part payload data
// according to comp before it reaches w. Close flushes the filter but
// does not close w. level is the zstd compression level and is ignored
// for CompNone.
func NewPayloadWriter(comp CompMode, w io.Writer, level int) (io.WriteCloser, error) {
	switch comp {
	case CompNone:
		return nopWriteCloser{w}, nil
	case CompZstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	case CompLibArchive:
		return nil, fmt.Errorf("%w: cannot produce libarchive payloads", ErrOpaquePayload)
	}
	return nil, fmt.Errorf("%w: %d", ErrPartCompression, uint8(comp))
}

// NewPayloadReader returns a ReadCloser producing the decompressed form
// of a part payload read from r. Close releases the decompressor but
// does not close r.
func NewPayloadReader(comp CompMode, r io.Reader) (io.ReadCloser, error) {
	switch comp {
	case CompNone:
		return io.NopCloser(r), nil
	case CompZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case CompLibArchive:
		return nil, fmt.Errorf("%w: cannot interpret libarchive payloads", ErrOpaquePayload)
	}
	return nil, fmt.Errorf("%w: %d", ErrPartCompression, uint8(comp))
}

// Filter identifies a compression format recognized inside an opaque
// libarchive payload.
type Filter int

const (
	FilterUnknown Filter = iota
	FilterZstd
	FilterLZ4
	FilterGzip
)

func (f Filter) String() string {
	switch f {
	case FilterZstd:
		return "zstd"
	case FilterLZ4:
		return "lz4"
	case FilterGzip:
		return "gzip"
	}
	return "unknown"
}

const (
	zstdFrameMagic = 0xFD2FB528
	lz4FrameMagic  = 0x184D2204
)

// SniffFilter inspects the first bytes of an opaque payload and reports
// the filter they announce, FilterUnknown if none. Recognition is by
// magic number only; brotli and raw filters carry none and always sniff
// as unknown.
func SniffFilter(prefix []byte) Filter {
	if len(prefix) >= 4 {
		switch binary.LittleEndian.Uint32(prefix) {
		case zstdFrameMagic:
			return FilterZstd
		case lz4FrameMagic:
			return FilterLZ4
		}
	}
	if len(prefix) >= 2 && prefix[0] == 0x1F && prefix[1] == 0x8B {
		return FilterGzip
	}
	return FilterUnknown
}

// NewSniffedReader buffers just enough of r to sniff its filter and
// returns a reader producing the decompressed stream, or the raw bytes
// unchanged when the filter is unrecognized.
func NewSniffedReader(r io.Reader) (io.Reader, Filter, error) {
	br := bufio.NewReader(r)
	prefix, err := br.Peek(4)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, FilterUnknown, err
	}

	switch f := SniffFilter(prefix); f {
	case FilterZstd:
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, f, err
		}
		return dec.IOReadCloser(), f, nil
	case FilterLZ4:
		return lz4.NewReader(br), f, nil
	case FilterGzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, f, err
		}
		return gz, f, nil
	default:
		return br, FilterUnknown, nil
	}
}
