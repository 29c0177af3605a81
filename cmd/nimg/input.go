package main

import (
	"fmt"
	"io"
	"os"
)

// openInput opens arg for reading, mapping "" or "-" to stdin. The
// second return value is a display name for diagnostics.
func openInput(arg string) (io.ReadCloser, string, error) {
	if arg == "" || arg == "-" {
		return io.NopCloser(os.Stdin), "<stdin>", nil
	}
	f, err := os.Open(arg)
	if err != nil {
		return nil, "", fmt.Errorf("unable to open %q for reading: %w", arg, err)
	}
	return f, arg, nil
}
