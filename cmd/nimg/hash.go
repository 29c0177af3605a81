package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	nimg "github.com/logicossoftware/go-nimg"
)

var hashCmd = &cobra.Command{
	Use:   "hash [FILE]",
	Short: "Read a file and print its xxHash32 digest",
	Long:  "Read FILE (stdin if omitted or '-') and print the format's xxHash32 digest of its contents.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHash,
}

func init() {
	rootCmd.AddCommand(hashCmd)
}

func runHash(cmd *cobra.Command, args []string) error {
	file := "-"
	if len(args) > 0 {
		file = args[0]
	}
	in, _, err := openInput(file)
	if err != nil {
		return err
	}
	defer in.Close()

	cr := nimg.NewChecksumReader(bufio.NewReader(in))
	if _, err := io.Copy(io.Discard, cr); err != nil {
		return fmt.Errorf("failed reading: %w", err)
	}
	// result on stdout, not the log
	fmt.Printf("0x%08x\n", cr.Sum32())
	return nil
}
