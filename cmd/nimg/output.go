package main

import (
	"io"
	"log/slog"
	"os"
)

// output is a created file that is removed on Close unless Commit was
// called first, so a failed run never leaves a partial image behind.
type output struct {
	path      string
	file      *os.File
	committed bool
	count     uint64
}

func createOutput(path string) (*output, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &output{path: path, file: f}, nil
}

// Write implements io.Writer and tracks the number of bytes written,
// which doubles as the running part offset during creation.
func (o *output) Write(p []byte) (int, error) {
	n, err := o.file.Write(p)
	o.count += uint64(n)
	return n, err
}

func (o *output) Seek(offset int64, whence int) (int64, error) {
	return o.file.Seek(offset, whence)
}

// Count returns the bytes written since the last ResetCount.
func (o *output) Count() uint64 { return o.count }

// ResetCount zeroes the byte counter. The create command calls this
// after the header placeholder so offsets are header-relative.
func (o *output) ResetCount() { o.count = 0 }

// Commit marks the file as complete so Close keeps it.
func (o *output) Commit() { o.committed = true }

func (o *output) Close() error {
	err := o.file.Close()
	if !o.committed {
		slog.Debug("removing incomplete output", "path", o.path)
		if rmErr := os.Remove(o.path); rmErr != nil && err == nil {
			err = rmErr
		}
	}
	return err
}

var _ io.WriteSeeker = (*output)(nil)
