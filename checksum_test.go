package nimg

import (
	"bytes"
	"io"
	"testing"
)

// Known xxHash32 (seed 0) digests used as regression anchors; the format
// is only compatible with existing images if these reproduce exactly.
const loremIpsum = `Lorem ipsum dolor sit amet, consectetur adipiscing elit. Pellentesque id dolor
ut lorem rutrum pulvinar sed id augue. Pellentesque neque magna, dapibus eget
congue pretium, suscipit nec eros. Vestibulum ipsum metus, efficitur vitae erat
et, sodales interdum quam. Ut nisl eros, semper at fermentum euismod, faucibus
nec dolor. Suspendisse tincidunt lorem luctus dui dapibus finibus. Donec sed
molestie urna, quis suscipit orci. Donec gravida arcu in nisi facilisis
imperdiet. Donec nisi sem, iaculis eu tellus maximus, scelerisque ultricies
tortor. Vestibulum gravida aliquet odio in posuere. Pellentesque sed
ullamcorper augue. Aenean nec sem sem. Fusce condimentum vestibulum nisi quis
dictum.
`

const loremIpsumSum = 0x287e3424

func TestChecksum32Vectors(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want uint32
	}{
		{"empty", nil, 0x02cc5d05},
		{"hello", []byte("Hello, world!\x00"), 0x9e5e7e93},
		{"lorem", []byte(loremIpsum), loremIpsumSum},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Checksum32(tc.in); got != tc.want {
				t.Fatalf("Checksum32 = 0x%08x, want 0x%08x", got, tc.want)
			}
		})
	}
}

func TestChecksumReader(t *testing.T) {
	cr := NewChecksumReader(bytes.NewReader([]byte(loremIpsum)))
	data, err := io.ReadAll(cr)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != len(loremIpsum) {
		t.Fatalf("read %d bytes, want %d", len(data), len(loremIpsum))
	}
	if cr.Count() != uint64(len(loremIpsum)) {
		t.Fatalf("Count = %d, want %d", cr.Count(), len(loremIpsum))
	}
	if got := cr.Sum32(); got != loremIpsumSum {
		t.Fatalf("Sum32 = 0x%08x, want 0x%08x", got, loremIpsumSum)
	}
}

func TestChecksumWriter(t *testing.T) {
	cw := NewChecksumWriter(io.Discard)
	if _, err := cw.Write([]byte(loremIpsum)); err != nil {
		t.Fatal(err)
	}
	if got := cw.Sum32(); got != loremIpsumSum {
		t.Fatalf("Sum32 = 0x%08x, want 0x%08x", got, loremIpsumSum)
	}

	// empty input
	cw = NewChecksumWriter(io.Discard)
	if _, err := cw.Write(nil); err != nil {
		t.Fatal(err)
	}
	if cw.Count() != 0 {
		t.Fatalf("Count = %d, want 0", cw.Count())
	}
	if got := cw.Sum32(); got != 0x02cc5d05 {
		t.Fatalf("Sum32 = 0x%08x, want 0x02cc5d05", got)
	}
}

func TestChecksumChunkedMatchesOneShot(t *testing.T) {
	data := []byte(loremIpsum)
	cw := NewChecksumWriter(io.Discard)
	half := len(data) / 2
	if _, err := cw.Write(data[:half]); err != nil {
		t.Fatal(err)
	}
	if _, err := cw.Write(data[half:]); err != nil {
		t.Fatal(err)
	}
	if got, want := cw.Sum32(), Checksum32(data); got != want {
		t.Fatalf("chunked digest 0x%08x != one-shot 0x%08x", got, want)
	}
}

type shortThenErrReader struct {
	data []byte
	err  error
}

func (r *shortThenErrReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestChecksumReaderInnerError(t *testing.T) {
	inner := &shortThenErrReader{data: []byte("abc"), err: io.ErrClosedPipe}
	cr := NewChecksumReader(inner)
	if _, err := io.Copy(io.Discard, cr); err != io.ErrClosedPipe {
		t.Fatalf("err = %v, want %v", err, io.ErrClosedPipe)
	}
	// only the bytes actually read are digested
	if got, want := cr.Sum32(), Checksum32([]byte("abc")); got != want {
		t.Fatalf("Sum32 = 0x%08x, want 0x%08x", got, want)
	}
	if cr.Count() != 3 {
		t.Fatalf("Count = %d, want 3", cr.Count())
	}
}

type errWriter struct{}

func (errWriter) Write(p []byte) (int, error) { return 0, io.ErrClosedPipe }

func TestChecksumWriterInnerError(t *testing.T) {
	cw := NewChecksumWriter(errWriter{})
	if _, err := cw.Write([]byte("abc")); err != io.ErrClosedPipe {
		t.Fatalf("err = %v, want %v", err, io.ErrClosedPipe)
	}
	// nothing was written, nothing is digested
	if got := cw.Sum32(); got != Checksum32(nil) {
		t.Fatalf("Sum32 = 0x%08x, want empty digest", got)
	}
	if cw.Inner() == nil {
		t.Fatal("Inner returned nil")
	}
}
