package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	nimg "github.com/logicossoftware/go-nimg"
)

var (
	extractDir        string
	extractDecompress bool
)

var extractCmd = &cobra.Command{
	Use:   "extract -o DIR [--decompress] FILE",
	Short: "Extract part payloads from an image",
	Long: `Extract every part payload from an nimg file into DIR, verifying each
part's digest along the way. Output files are named partNN.TYPE.

With --decompress, zstd parts are decompressed and opaque libarchive
parts are probed by magic number (zstd, lz4, gzip); unrecognized opaque
payloads are copied raw.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractDir, "output", "o", "", "output directory (required)")
	extractCmd.MarkFlagRequired("output")
	extractCmd.Flags().BoolVar(&extractDecompress, "decompress", false, "decompress payloads when the filter is known")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	in, name, err := openInput(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	var buf [nimg.HeaderSize]byte
	if _, err := io.ReadFull(in, buf[:]); err != nil {
		return fmt.Errorf("failed reading header: %w", err)
	}
	header, err := nimg.ParseImageHeader(buf[:])
	if err != nil {
		return err
	}
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return err
	}
	slog.Info("extracting image", "file", name, "name", header.Name, "parts", len(header.Parts))

	var current uint64
	for i := range header.Parts {
		part := header.Parts[i]
		if part.Offset < current {
			return fmt.Errorf("part %d offset %d is out of order", i, part.Offset)
		}
		if part.Offset > current {
			if _, err := io.CopyN(io.Discard, in, int64(part.Offset-current)); err != nil {
				return fmt.Errorf("failed to read padding before part %d: %w", i, err)
			}
			current = part.Offset
		}
		if err := extractPart(in, i, part); err != nil {
			return err
		}
		current += part.Size
	}
	return nil
}

func extractPart(r io.Reader, index int, part nimg.PartHeader) error {
	path := filepath.Join(extractDir, fmt.Sprintf("part%02d.%s", index, part.Type))
	out, err := createOutput(path)
	if err != nil {
		return fmt.Errorf("unable to open %q for writing: %w", path, err)
	}
	defer out.Close()

	// the digest covers the stored bytes, so it wraps the raw stream
	// inside any decompression
	cr := nimg.NewChecksumReader(io.LimitReader(r, int64(part.Size)))
	src := io.Reader(cr)
	if extractDecompress {
		switch part.Comp {
		case nimg.CompZstd:
			dec, err := nimg.NewPayloadReader(part.Comp, cr)
			if err != nil {
				return err
			}
			defer dec.Close()
			src = dec
		case nimg.CompLibArchive:
			sniffed, filter, err := nimg.NewSniffedReader(cr)
			if err != nil {
				return err
			}
			slog.Debug("probed opaque payload", "part", index, "filter", filter.String())
			src = sniffed
		}
	}

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("failed extracting part %d: %w", index, err)
	}
	// a decompressor may stop before trailing stored bytes; the digest
	// needs all of them
	if _, err := io.Copy(io.Discard, cr); err != nil {
		return fmt.Errorf("failed draining part %d: %w", index, err)
	}
	if cr.Count() != part.Size {
		return fmt.Errorf("part %d: read %d/%d bytes", index, cr.Count(), part.Size)
	}
	if got := cr.Sum32(); got != part.Checksum {
		return fmt.Errorf("part %d checksum is invalid: expected 0x%08x, computed 0x%08x", index, part.Checksum, got)
	}

	slog.Info("extracted part", "index", index, "path", path, "bytes", part.Size)
	out.Commit()
	return nil
}
