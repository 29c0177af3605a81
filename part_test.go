package nimg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
)

func samplePart() PartHeader {
	return PartHeader{
		Size:     123456,
		Offset:   0x10000,
		Type:     PartRootfs,
		Comp:     CompZstd,
		Checksum: 0xdeadbeef,
	}
}

func encodePart(t *testing.T, h PartHeader) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := h.EncodeTo(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != PartHeaderSize {
		t.Fatalf("encoded %d bytes, want %d", buf.Len(), PartHeaderSize)
	}
	return buf.Bytes()
}

func TestPartHeaderRoundTrip(t *testing.T) {
	in := samplePart()
	out, err := ParsePartHeader(encodePart(t, in))
	if err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: %#v vs %#v", out, in)
	}
}

func TestPartHeaderGoldenBytes(t *testing.T) {
	got := encodePart(t, samplePart())

	want := make([]byte, PartHeaderSize)
	copy(want, PartMagic[:])
	binary.LittleEndian.PutUint64(want[8:], 123456)
	binary.LittleEndian.PutUint64(want[16:], 0x10000)
	want[24] = byte(PartRootfs)
	want[25] = byte(CompZstd)
	binary.LittleEndian.PutUint32(want[28:], 0xdeadbeef)
	if !bytes.Equal(got, want) {
		t.Fatalf("encoded bytes\n got %x\nwant %x", got, want)
	}
}

func TestParsePartHeaderBadSize(t *testing.T) {
	for _, n := range []int{0, 31, 33, 64} {
		if _, err := ParsePartHeader(make([]byte, n)); !errors.Is(err, ErrPartSize) {
			t.Fatalf("len %d: err = %v, want ErrPartSize", n, err)
		}
	}
}

func TestParsePartHeaderBadMagic(t *testing.T) {
	buf := encodePart(t, samplePart())
	buf[0] ^= 0xff
	if _, err := ParsePartHeader(buf); !errors.Is(err, ErrPartMagic) {
		t.Fatalf("err = %v, want ErrPartMagic", err)
	}
}

func TestParsePartHeaderBadType(t *testing.T) {
	buf := encodePart(t, samplePart())
	for _, b := range []byte{0, 200} { // explicit invalid sentinel and out of range
		buf[24] = b
		if _, err := ParsePartHeader(buf); !errors.Is(err, ErrPartType) {
			t.Fatalf("type %d: err = %v, want ErrPartType", b, err)
		}
	}
}

func TestParsePartHeaderBadCompression(t *testing.T) {
	buf := encodePart(t, samplePart())
	buf[25] = 99
	if _, err := ParsePartHeader(buf); !errors.Is(err, ErrPartCompression) {
		t.Fatalf("err = %v, want ErrPartCompression", err)
	}
}

func TestParsePartHeaderReservedIgnored(t *testing.T) {
	buf := encodePart(t, samplePart())
	buf[26], buf[27] = 0xaa, 0xbb
	out, err := ParsePartHeader(buf)
	if err != nil {
		t.Fatal(err)
	}
	if out != samplePart() {
		t.Fatalf("reserved bytes leaked into parse: %#v", out)
	}
}

func TestPartHeaderEncodeToFailingWriter(t *testing.T) {
	if err := samplePart().EncodeTo(errWriter{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestPartHeaderDescribe(t *testing.T) {
	var sb strings.Builder
	if err := samplePart().Describe(&sb, 2); err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	for _, want := range []string{"rootfs", "zstd", "0xdeadbeef", "120.6 KiB"} {
		if !strings.Contains(out, want) {
			t.Fatalf("Describe output missing %q:\n%s", want, out)
		}
	}
}

func TestPartTypeNames(t *testing.T) {
	for _, tc := range []struct {
		t    PartType
		name string
	}{
		{PartInvalid, "invalid"},
		{PartBootImg, "boot_img"},
		{PartBootTar, "boot_tar"},
		{PartRootfs, "rootfs"},
		{PartRootfsRW, "rootfs_rw"},
	} {
		if tc.t.String() != tc.name {
			t.Fatalf("%d.String() = %q, want %q", tc.t, tc.t.String(), tc.name)
		}
	}
	if PartType(42).String() != "unknown(42)" {
		t.Fatalf("unknown type String = %q", PartType(42).String())
	}

	pt, err := ParsePartType("boot_tar")
	if err != nil || pt != PartBootTar {
		t.Fatalf("ParsePartType = %v, %v", pt, err)
	}
	if _, err := ParsePartType("invalid"); !errors.Is(err, ErrPartType) {
		t.Fatalf("parsing the invalid sentinel: err = %v", err)
	}
	if _, err := ParsePartType("nope"); !errors.Is(err, ErrPartType) {
		t.Fatalf("unknown name: err = %v", err)
	}
}

func TestCompModeNames(t *testing.T) {
	for _, tc := range []struct {
		c    CompMode
		name string
	}{
		{CompNone, "none"},
		{CompZstd, "zstd"},
		{CompLibArchive, "libarchive"},
	} {
		if tc.c.String() != tc.name {
			t.Fatalf("%d.String() = %q, want %q", tc.c, tc.c.String(), tc.name)
		}
		got, err := ParseCompMode(tc.name)
		if err != nil || got != tc.c {
			t.Fatalf("ParseCompMode(%q) = %v, %v", tc.name, got, err)
		}
	}
	if _, err := ParseCompMode("bzip2"); !errors.Is(err, ErrPartCompression) {
		t.Fatalf("unknown mode: err = %v", err)
	}
}

func TestHumanSize(t *testing.T) {
	cases := []struct {
		n    uint64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{123456, "120.6 KiB"},
		{5 << 20, "5.0 MiB"},
		{3 << 30, "3.0 GiB"},
	}
	for _, tc := range cases {
		if got := humanSize(tc.n); got != tc.want {
			t.Fatalf("humanSize(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}
