package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	nimg "github.com/logicossoftware/go-nimg"
)

// Parts written by create are padded to this alignment; the padding is
// not covered by the part digest.
const partAlign = 16

const defaultZstdLevel = 15

var (
	createOut  string
	createName string
)

var createCmd = &cobra.Command{
	Use:   "create -o FILE [-n NAME] FILE:TYPE[:COMP[+LEVEL]]...",
	Short: "Create an image from part payload files",
	Long: `Create an nimg file from one or more part payloads.

Each part argument is FILE:TYPE[:COMP[+LEVEL]]. TYPE is one of boot_img,
boot_tar, rootfs, rootfs_rw. COMP defaults to none; zstd marks a payload
that is already zstd-compressed, and zstd+LEVEL (LEVEL optional,
default 15) compresses the payload while writing it. libarchive marks an
opaque externally-filtered payload.

Example:
  nimg create -o factory.img -n factory boot.img:boot_img rootfs.sqfs:rootfs:zstd+19`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVarP(&createOut, "output", "o", "", "output image file (required)")
	createCmd.MarkFlagRequired("output")
	createCmd.Flags().StringVarP(&createName, "name", "n", "", "image name, at most 128 bytes")
	rootCmd.AddCommand(createCmd)
}

type partInput struct {
	filename string
	ptype    nimg.PartType
	comp     nimg.CompMode
	zstdLvl  int // non-zero: compress the payload while writing
}

// parsePartArg parses FILE:TYPE[:COMP[+LEVEL]]. A side effect of the
// format is that FILE cannot contain ':'.
func parsePartArg(arg string) (partInput, error) {
	fields := strings.Split(arg, ":")
	if fields[0] == "" {
		return partInput{}, fmt.Errorf("empty filename in %q", arg)
	}
	if len(fields) < 2 {
		return partInput{}, fmt.Errorf("missing part type in %q", arg)
	}
	if len(fields) > 3 {
		return partInput{}, fmt.Errorf("trailing colon-delimited fields in %q", arg)
	}

	ptype, err := nimg.ParsePartType(fields[1])
	if err != nil {
		return partInput{}, fmt.Errorf("unrecognized part type %q", fields[1])
	}
	pi := partInput{filename: fields[0], ptype: ptype, comp: nimg.CompNone}

	if len(fields) == 3 {
		compStr, levelStr, hasLevel := strings.Cut(fields[2], "+")
		comp, err := nimg.ParseCompMode(compStr)
		if err != nil {
			return partInput{}, fmt.Errorf("unrecognized compression mode %q", compStr)
		}
		pi.comp = comp
		if hasLevel {
			if comp != nimg.CompZstd {
				slog.Warn("ignoring compression level on non-zstd part", "arg", arg)
			} else if levelStr == "" {
				pi.zstdLvl = defaultZstdLevel
			} else {
				level, err := strconv.Atoi(levelStr)
				if err != nil {
					return partInput{}, fmt.Errorf("bad zstd compression level %q", levelStr)
				}
				pi.zstdLvl = level
			}
		}
	}
	return pi, nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	inputs := make([]partInput, 0, len(args))
	for _, arg := range args {
		pi, err := parsePartArg(arg)
		if err != nil {
			return err
		}
		inputs = append(inputs, pi)
	}
	if len(inputs) > nimg.MaxParts {
		return fmt.Errorf("%d parts exceeds maximum of %d", len(inputs), nimg.MaxParts)
	}

	slog.Info("creating image", "path", createOut, "name", createName)
	out, err := createOutput(createOut)
	if err != nil {
		return fmt.Errorf("unable to open %q for writing: %w", createOut, err)
	}
	defer out.Close()

	// Header placeholder first; part offsets are relative to the end of
	// the header, so the counter restarts after it.
	if err := nimg.WriteZeros(out, nimg.HeaderSize); err != nil {
		return err
	}
	out.ResetCount()

	header := nimg.NewImageHeader(createName)
	for _, pi := range inputs {
		if err := addPart(out, header, pi); err != nil {
			return err
		}
	}

	// seek back and replace the placeholder with the real header
	if _, err := out.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek output file: %w", err)
	}
	if err := header.EncodeTo(out); err != nil {
		return fmt.Errorf("failed to write image header: %w", err)
	}

	out.Commit()
	return nil
}

func addPart(out *output, header *nimg.ImageHeader, pi partInput) error {
	f, err := os.Open(pi.filename)
	if err != nil {
		return fmt.Errorf("unable to open %q for reading: %w", pi.filename, err)
	}
	defer f.Close()

	offset := out.Count()
	cw := nimg.NewChecksumWriter(out)
	dst := io.Writer(cw)
	var enc io.WriteCloser
	if pi.zstdLvl != 0 {
		slog.Debug("compressing part with zstd", "file", pi.filename, "level", pi.zstdLvl)
		enc, err = nimg.NewPayloadWriter(nimg.CompZstd, cw, pi.zstdLvl)
		if err != nil {
			return err
		}
		dst = enc
	}
	if _, err := io.Copy(dst, bufio.NewReader(f)); err != nil {
		return fmt.Errorf("failed writing part %q: %w", pi.filename, err)
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed flushing part %q: %w", pi.filename, err)
		}
	}

	part := nimg.PartHeader{
		Size:     cw.Count(),
		Offset:   offset,
		Type:     pi.ptype,
		Comp:     pi.comp,
		Checksum: cw.Sum32(),
	}
	slog.Info("added part",
		"index", len(header.Parts),
		"file", pi.filename,
		"type", part.Type.String(),
		"compression", part.Comp.String(),
		"size", part.Size,
		"offset", part.Offset,
		"checksum", fmt.Sprintf("0x%08x", part.Checksum))
	header.AddPart(part)

	if pad := (partAlign - part.Size%partAlign) % partAlign; pad > 0 {
		slog.Debug("writing padding", "bytes", pad)
		return nimg.WriteZeros(out, int(pad))
	}
	return nil
}
