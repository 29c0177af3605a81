package nimg

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// Image header layout (1024 bytes, little-endian):
//
//	offset  size   field
//	0       8      magic "NEWBSIMG"
//	8       1      version
//	9       1      part count
//	10      6      reserved
//	16      128    name, NUL-padded UTF-8
//	144     32*27  part header slots, unused slots zero-filled
//	1008    12     reserved
//	1020    4      xxHash32 over bytes [0, 1020)

// ParseImageHeader parses and validates an image header. buf must be
// exactly HeaderSize bytes; every downstream computation assumes that
// exact size. All relevant data is copied out, so the returned header
// is independent of buf.
func ParseImageHeader(buf []byte) (*ImageHeader, error) {
	if len(buf) != HeaderSize {
		return nil, fmt.Errorf("%w: expected %d, found %d", ErrHeaderSize, HeaderSize, len(buf))
	}

	r := NewSliceReader(buf)
	if magic := r.ReadBytes(8); !bytes.Equal(magic, HeaderMagic[:]) {
		return nil, fmt.Errorf("%w: found %q", ErrHeaderMagic, magic)
	}

	// The trailing digest covers everything before itself. Check it
	// before trusting any other field.
	r.Seek(-4, io.SeekEnd)
	want, _ := r.ReadUint32()
	if got := Checksum32(buf[:HeaderSize-4]); want != got {
		return nil, &ChecksumError{Want: want, Got: got}
	}
	r.Seek(8, io.SeekStart)

	// buf length is exact from here on, fixed-width reads cannot fail
	h := NewImageHeader("")
	version, _ := r.ReadByte()
	if version != CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, version)
	}
	h.Version = version

	count, _ := r.ReadByte()
	if int(count) > MaxParts {
		return nil, fmt.Errorf("%w: %d exceeds maximum of %d", ErrTooManyParts, count, MaxParts)
	}
	r.Skip(6) // reserved

	// The name field is NUL-terminated unless the name fills all 128
	// bytes. Invalid UTF-8 is replaced rather than rejected.
	name := r.ReadBytes(NameLen)
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	h.Name = strings.ToValidUTF8(string(name), "\uFFFD")

	for i := 0; i < int(count); i++ {
		part, err := ParsePartHeader(r.ReadBytes(PartHeaderSize))
		if err != nil {
			return nil, &PartError{Index: i, Err: err}
		}
		h.Parts = append(h.Parts, part)
	}

	// Everything after the last used part slot is ignored: empty slots,
	// the reserved tail, and the digest (already consumed).
	return h, nil
}

// Validate checks the header against the format's bounds before
// serialization. It reuses the same error values ParseImageHeader
// reports for the equivalent on-disk violations.
func (h *ImageHeader) Validate() error {
	if h.Version != CurrentVersion {
		return fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	if len(h.Name) > NameLen {
		return fmt.Errorf("%w: %d bytes exceeds maximum of %d", ErrNameTooLong, len(h.Name), NameLen)
	}
	if len(h.Parts) > MaxParts {
		return fmt.Errorf("%w: %d exceeds maximum of %d", ErrTooManyParts, len(h.Parts), MaxParts)
	}
	for i := range h.Parts {
		p := &h.Parts[i]
		if !p.Type.known() || p.Type == PartInvalid {
			return &PartError{Index: i, Err: fmt.Errorf("%w: %d", ErrPartType, uint8(p.Type))}
		}
		if !p.Comp.known() {
			return &PartError{Index: i, Err: fmt.Errorf("%w: %d", ErrPartCompression, uint8(p.Comp))}
		}
	}
	return nil
}

// EncodeTo validates the header and writes the full 1024-byte record to
// w. The output stream is wrapped in the checksum engine so the
// trailing digest covers exactly the 1020 bytes written before it.
func (h *ImageHeader) EncodeTo(w io.Writer) error {
	if err := h.Validate(); err != nil {
		return err
	}

	cw := NewChecksumWriter(w)
	if _, err := cw.Write(HeaderMagic[:]); err != nil {
		return err
	}
	if _, err := cw.Write([]byte{h.Version, byte(len(h.Parts))}); err != nil {
		return err
	}
	if err := WriteZeros(cw, 6); err != nil {
		return err
	}
	if _, err := io.WriteString(cw, h.Name); err != nil {
		return err
	}
	if err := WriteZeros(cw, NameLen-len(h.Name)); err != nil {
		return err
	}
	for i := range h.Parts {
		if err := h.Parts[i].EncodeTo(cw); err != nil {
			return err
		}
	}
	// unused part slots plus the reserved tail
	if err := WriteZeros(cw, (MaxParts-len(h.Parts))*PartHeaderSize+12); err != nil {
		return err
	}

	var sum [4]byte
	binary.LittleEndian.PutUint32(sum[:], cw.Sum32())
	_, err := cw.Inner().Write(sum[:])
	return err
}

// VerifyPayloads reads the payload data for every part from r, which
// must be positioned immediately after the image header, and checks each
// part's stored digest against the bytes actually present. Offsets must
// be monotonically non-decreasing and consistent with the running
// payload length; gaps are consumed as alignment padding.
func (h *ImageHeader) VerifyPayloads(r io.Reader) error {
	var current uint64
	for i := range h.Parts {
		p := &h.Parts[i]
		if p.Offset < current {
			return &PartError{Index: i, Err: fmt.Errorf("offset %d is out of order (expected at least %d)", p.Offset, current)}
		}
		if p.Offset > current {
			pad := p.Offset - current
			if _, err := io.CopyN(io.Discard, r, int64(pad)); err != nil {
				return &PartError{Index: i, Err: fmt.Errorf("reading %d padding bytes: %w", pad, err)}
			}
			current += pad
		}

		cr := NewChecksumReader(r)
		if _, err := io.CopyN(io.Discard, cr, int64(p.Size)); err != nil {
			return &PartError{Index: i, Err: fmt.Errorf("reading %d payload bytes: %w", p.Size, err)}
		}
		if got := cr.Sum32(); got != p.Checksum {
			return &PartError{Index: i, Err: &ChecksumError{Want: p.Checksum, Got: got}}
		}
		current += p.Size
	}
	return nil
}

// Describe writes a human-readable rendering of the header and all of
// its parts to w. The in-memory header does not retain its trailing
// digest, so the caller supplies it (typically read back out of the raw
// buffer); pass nil to omit the line.
func (h *ImageHeader) Describe(w io.Writer, checksum *uint32) error {
	name := h.Name
	if name == "" {
		name = "(empty)"
	}
	if _, err := fmt.Fprintf(w, "name:     %s\nversion:  %d\nparts:    %d\n", name, h.Version, len(h.Parts)); err != nil {
		return err
	}
	if checksum != nil {
		if _, err := fmt.Fprintf(w, "checksum: 0x%08x\n", *checksum); err != nil {
			return err
		}
	}
	for i := range h.Parts {
		if _, err := fmt.Fprintf(w, "part %d:\n", i); err != nil {
			return err
		}
		if err := h.Parts[i].Describe(w, 2); err != nil {
			return err
		}
	}
	return nil
}
