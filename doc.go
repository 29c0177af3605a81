// Package nimg implements the nimg firmware container format: a fixed
// 1024-byte image header followed by up to 27 payload parts, each
// described by a fixed 32-byte part header.
//
// # File Format Overview
//
// An nimg file consists of:
//   - A 1024-byte image header with magic bytes, version, a 128-byte
//     NUL-padded name, up to 27 part header slots, and a trailing
//     xxHash32 digest over everything before the digest itself
//   - The part payloads, in offset order, each padded to the creator's
//     alignment (padding is not covered by the part digest)
//
// Each 32-byte part header records the part's content type, compression
// mode, payload size, payload offset relative to the end of the image
// header, and an xxHash32 digest of the stored payload bytes.
//
// All integers are little-endian. The single supported format version
// is 3; older layouts are rejected.
//
// # Basic Usage
//
// To build and write an image header:
//
//	header := nimg.NewImageHeader("factory")
//	header.AddPart(nimg.PartHeader{
//		Size:     size,
//		Offset:   0,
//		Type:     nimg.PartRootfs,
//		Comp:     nimg.CompZstd,
//		Checksum: sum,
//	})
//	err := header.EncodeTo(f)
//
// To read one back:
//
//	buf := make([]byte, nimg.HeaderSize)
//	_, err := io.ReadFull(f, buf)
//	header, err := nimg.ParseImageHeader(buf)
//
// Payload integrity is the caller's side of the contract: after parsing,
// stream the payload bytes through [ImageHeader.VerifyPayloads] or wrap
// the stream in a [ChecksumReader] and compare against the stored part
// digests.
//
// # Errors
//
// All validation failures are deterministic functions of the input bytes
// and are reported through the sentinel errors in this package, usable
// with errors.Is. Failures inside a part header slot are wrapped in a
// [PartError] carrying the slot index and the part-level cause.
package nimg
