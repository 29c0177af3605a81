package nimg

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Part header layout (32 bytes, little-endian):
//
//	offset  size  field
//	0       8     magic "NIMGPART"
//	8       8     payload size
//	16      8     payload offset from end of image header
//	24      1     part type
//	25      1     compression mode
//	26      2     reserved
//	28      4     xxHash32 of the stored payload

// ParsePartHeader parses and validates one part header record. buf must
// be exactly PartHeaderSize bytes. The stored payload digest is copied
// out but not verified here; only a pass over the payload bytes can do
// that (see ImageHeader.VerifyPayloads).
func ParsePartHeader(buf []byte) (PartHeader, error) {
	if len(buf) != PartHeaderSize {
		return PartHeader{}, fmt.Errorf("%w: expected %d, found %d", ErrPartSize, PartHeaderSize, len(buf))
	}

	r := NewSliceReader(buf)
	if magic := r.ReadBytes(8); !bytes.Equal(magic, PartMagic[:]) {
		return PartHeader{}, fmt.Errorf("%w: found %q", ErrPartMagic, magic)
	}

	// length is exact, so the fixed-width reads below cannot fail
	var h PartHeader
	h.Size, _ = r.ReadUint64()
	h.Offset, _ = r.ReadUint64()

	tb, _ := r.ReadByte()
	t := PartType(tb)
	if !t.known() || t == PartInvalid {
		return PartHeader{}, fmt.Errorf("%w: %d", ErrPartType, tb)
	}
	h.Type = t

	cb, _ := r.ReadByte()
	c := CompMode(cb)
	if !c.known() {
		return PartHeader{}, fmt.Errorf("%w: %d", ErrPartCompression, cb)
	}
	h.Comp = c

	r.Skip(2) // reserved
	h.Checksum, _ = r.ReadUint32()
	return h, nil
}

// EncodeTo writes the 32-byte part header record to w. Reserved bytes
// are zeroed, so the output is byte-for-byte reproducible and re-parsing
// it yields an equal header.
func (h PartHeader) EncodeTo(w io.Writer) error {
	var buf [PartHeaderSize]byte
	sw := NewSliceWriter(buf[:])
	// the buffer is sized exactly, none of these can fail
	sw.Write(PartMagic[:])
	sw.WriteUint64(h.Size)
	sw.WriteUint64(h.Offset)
	sw.WriteByte(byte(h.Type))
	sw.WriteByte(byte(h.Comp))
	sw.WriteZeros(2)
	sw.WriteUint32(h.Checksum)

	_, err := w.Write(buf[:])
	return err
}

// Describe writes a human-readable rendering of the part header to w,
// indented by indent spaces. Diagnostic output only, not part of the
// wire format.
func (h PartHeader) Describe(w io.Writer, indent int) error {
	pad := strings.Repeat(" ", indent)
	_, err := fmt.Fprintf(w,
		"%stype:        %s\n%scompression: %s\n%ssize:        %d (%s)\n%soffset:      %d (%s)\n%schecksum:    0x%08x\n",
		pad, h.Type,
		pad, h.Comp,
		pad, h.Size, humanSize(h.Size),
		pad, h.Offset, humanSize(h.Offset),
		pad, h.Checksum)
	return err
}

func humanSize(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
