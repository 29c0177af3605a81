package nimg

import "fmt"

const (
	// CurrentVersion is the only nimg format version this package reads
	// or writes. Older on-disk layouts (CRC32-era) are rejected.
	CurrentVersion uint8 = 3

	// HeaderSize is the exact size of the image header. Part offsets are
	// relative to the end of this header.
	HeaderSize = 1024

	// PartHeaderSize is the exact size of each part header record.
	PartHeaderSize = 32

	// NameLen is the maximum byte length of the image name field.
	NameLen = 128

	// MaxParts is the maximum number of parts in an image.
	MaxParts = 27
)

// HeaderMagic is the 8-byte tag at the start of every image header.
var HeaderMagic = [8]byte{'N', 'E', 'W', 'B', 'S', 'I', 'M', 'G'}

// PartMagic is the 8-byte tag at the start of every part header.
var PartMagic = [8]byte{'N', 'I', 'M', 'G', 'P', 'A', 'R', 'T'}

// PartType identifies the content of a part. The zero value is an
// explicit invalid sentinel and is never legal in a finalized header.
type PartType uint8

const (
	PartInvalid PartType = iota
	PartBootImg
	PartBootTar
	PartRootfs
	PartRootfsRW
)

var partTypeNames = map[PartType]string{
	PartInvalid:  "invalid",
	PartBootImg:  "boot_img",
	PartBootTar:  "boot_tar",
	PartRootfs:   "rootfs",
	PartRootfsRW: "rootfs_rw",
}

func (t PartType) String() string {
	if s, ok := partTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

// known reports whether t is a defined type, including PartInvalid.
func (t PartType) known() bool {
	_, ok := partTypeNames[t]
	return ok
}

// ParsePartType maps a type name (as printed by String) back to its
// PartType. The "invalid" sentinel is not accepted.
func ParsePartType(s string) (PartType, error) {
	for t, name := range partTypeNames {
		if name == s && t != PartInvalid {
			return t, nil
		}
	}
	return PartInvalid, fmt.Errorf("%w: %q", ErrPartType, s)
}

// CompMode describes how a part's stored bytes relate to its logical
// content. CompLibArchive payloads are opaque to this package: some
// external filter produced them and the consumer is expected to know
// which.
type CompMode uint8

const (
	CompNone CompMode = iota
	CompZstd
	CompLibArchive
)

var compModeNames = map[CompMode]string{
	CompNone:       "none",
	CompZstd:       "zstd",
	CompLibArchive: "libarchive",
}

func (c CompMode) String() string {
	if s, ok := compModeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("unknown(%d)", uint8(c))
}

func (c CompMode) known() bool {
	_, ok := compModeNames[c]
	return ok
}

// ParseCompMode maps a compression mode name back to its CompMode.
func ParseCompMode(s string) (CompMode, error) {
	for c, name := range compModeNames {
		if name == s {
			return c, nil
		}
	}
	return CompNone, fmt.Errorf("%w: %q", ErrPartCompression, s)
}

// ImageHeader is the parsed representation of the 1024-byte image
// header. It holds only data that matters: the magic, reserved bytes,
// and trailing digest exist on disk but are recomputed or ignored here.
//
// Headers are independently owned value objects; copies share nothing
// with the buffer they were parsed from.
type ImageHeader struct {
	// Version is the format version, always CurrentVersion for headers
	// produced by this package.
	Version uint8

	// Name is the human-readable image label, at most NameLen bytes.
	Name string

	// Parts holds the part headers in on-disk order. Offsets must be
	// monotonically non-decreasing; the codec stores them verbatim and
	// VerifyPayloads enforces consistency against the actual data.
	Parts []PartHeader
}

// PartHeader is the parsed representation of one 32-byte part record.
type PartHeader struct {
	// Size is the byte length of the stored payload, exclusive of any
	// alignment padding that follows it.
	Size uint64

	// Offset is the payload's byte offset relative to the end of the
	// image header.
	Offset uint64

	// Type is the part's content type.
	Type PartType

	// Comp is the part's compression mode.
	Comp CompMode

	// Checksum is the xxHash32 digest of the stored payload bytes,
	// computed over exactly Size bytes.
	Checksum uint32
}

// NewImageHeader returns an empty current-version header with the given
// name and no parts.
func NewImageHeader(name string) *ImageHeader {
	return &ImageHeader{Version: CurrentVersion, Name: name}
}

// AddPart appends a part header. Bounds are enforced by Validate, not
// here, so a creation tool can assemble first and fail once.
func (h *ImageHeader) AddPart(p PartHeader) {
	h.Parts = append(h.Parts, p)
}
