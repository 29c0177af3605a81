package nimg

import (
	"encoding/binary"
	"io"
)

// SliceReader provides positioned, bounds-checked little-endian reads
// over a fixed byte buffer. No operation panics on truncated input:
// fixed-width reads return ErrInsufficientData and span reads return a
// short slice, so header parsing can rely on deterministic behavior for
// malformed buffers.
type SliceReader struct {
	buf []byte
	pos int
}

func NewSliceReader(buf []byte) *SliceReader {
	return &SliceReader{buf: buf}
}

// Pos returns the current cursor position.
func (r *SliceReader) Pos() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *SliceReader) Remaining() int { return len(r.buf) - r.pos }

func (r *SliceReader) ReadByte() (byte, error) {
	if r.Remaining() < 1 {
		return 0, ErrInsufficientData
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *SliceReader) ReadUint32() (uint32, error) {
	if r.Remaining() < 4 {
		return 0, ErrInsufficientData
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *SliceReader) ReadUint64() (uint64, error) {
	if r.Remaining() < 8 {
		return 0, ErrInsufficientData
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

// ReadBytes returns the next n bytes as a sub-slice of the underlying
// buffer, without copying. Near the end of the buffer the returned
// slice is shorter than n; callers must check its length.
func (r *SliceReader) ReadBytes(n int) []byte {
	if n > r.Remaining() {
		n = r.Remaining()
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

// Skip advances the cursor by n bytes, clamped to the end of the buffer.
func (r *SliceReader) Skip(n int) {
	r.Seek(int64(n), io.SeekCurrent)
}

// Seek implements io.Seeker. The resulting position is clamped to
// [0, len]; out-of-range requests never error.
func (r *SliceReader) Seek(offset int64, whence int) (int64, error) {
	r.pos = clampSeek(offset, whence, r.pos, len(r.buf))
	return int64(r.pos), nil
}

// SliceWriter provides positioned little-endian writes over a
// fixed-capacity byte buffer. Writes that do not fit store what they
// can and return ErrInsufficientData.
type SliceWriter struct {
	buf []byte
	pos int
}

func NewSliceWriter(buf []byte) *SliceWriter {
	return &SliceWriter{buf: buf}
}

// Pos returns the current cursor position.
func (w *SliceWriter) Pos() int { return w.pos }

// Remaining returns the writable space left.
func (w *SliceWriter) Remaining() int { return len(w.buf) - w.pos }

func (w *SliceWriter) WriteByte(b byte) error {
	if w.Remaining() < 1 {
		return ErrInsufficientData
	}
	w.buf[w.pos] = b
	w.pos++
	return nil
}

func (w *SliceWriter) WriteUint32(v uint32) error {
	if w.Remaining() < 4 {
		return ErrInsufficientData
	}
	binary.LittleEndian.PutUint32(w.buf[w.pos:], v)
	w.pos += 4
	return nil
}

func (w *SliceWriter) WriteUint64(v uint64) error {
	if w.Remaining() < 8 {
		return ErrInsufficientData
	}
	binary.LittleEndian.PutUint64(w.buf[w.pos:], v)
	w.pos += 8
	return nil
}

// Write implements io.Writer. A write past the end of the buffer copies
// what fits and returns ErrInsufficientData.
func (w *SliceWriter) Write(p []byte) (int, error) {
	n := copy(w.buf[w.pos:], p)
	w.pos += n
	if n < len(p) {
		return n, ErrInsufficientData
	}
	return n, nil
}

// WriteZeros writes n zero bytes.
func (w *SliceWriter) WriteZeros(n int) error {
	if n > w.Remaining() {
		n = w.Remaining()
		clear(w.buf[w.pos:])
		w.pos = len(w.buf)
		return ErrInsufficientData
	}
	clear(w.buf[w.pos : w.pos+n])
	w.pos += n
	return nil
}

// Seek implements io.Seeker with the same clamping as SliceReader.
func (w *SliceWriter) Seek(offset int64, whence int) (int64, error) {
	w.pos = clampSeek(offset, whence, w.pos, len(w.buf))
	return int64(w.pos), nil
}

func clampSeek(offset int64, whence, pos, length int) int {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = int64(pos) + offset
	case io.SeekEnd:
		target = int64(length) + offset
	default:
		target = int64(pos)
	}
	if target < 0 {
		return 0
	}
	if target > int64(length) {
		return length
	}
	return int(target)
}

var zeros [512]byte

// WriteZeros writes n zero bytes to w in chunks. It is the streaming
// counterpart of SliceWriter.WriteZeros, used for header placeholders
// and part alignment padding.
func WriteZeros(w io.Writer, n int) error {
	for n > 0 {
		chunk := n
		if chunk > len(zeros) {
			chunk = len(zeros)
		}
		wrote, err := w.Write(zeros[:chunk])
		if err != nil {
			return err
		}
		n -= wrote
	}
	return nil
}
