package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	nimg "github.com/logicossoftware/go-nimg"
)

var checkCmd = &cobra.Command{
	Use:   "check [FILE]",
	Short: "Check an image for errors and print header information",
	Long: `Check an nimg file for errors and print its header.

Reads from stdin if FILE is omitted or '-'. With -q only errors are
reported; with -q -q nothing is printed and only the exit code
communicates the result.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	file := "-"
	if len(args) > 0 {
		file = args[0]
	}
	in, name, err := openInput(file)
	if err != nil {
		return err
	}
	defer in.Close()

	err = checkImage(in, name, flagQuiet > 0)
	if err != nil && flagQuiet >= 2 {
		// silent mode: exit code only
		return errors.New("")
	}
	return err
}

func checkImage(r io.Reader, name string, quiet bool) error {
	var buf [nimg.HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return fmt.Errorf("failed reading header: %w", err)
	}
	header, err := nimg.ParseImageHeader(buf[:])
	if err != nil {
		return err
	}

	if !quiet {
		fmt.Printf("%s:\n", name)
		// the parsed header does not keep its digest, pull it back out
		// of the raw buffer
		sum := binary.LittleEndian.Uint32(buf[nimg.HeaderSize-4:])
		if err := header.Describe(os.Stdout, &sum); err != nil {
			return err
		}
	}

	if err := header.VerifyPayloads(r); err != nil {
		return err
	}
	if !quiet {
		fmt.Println("Image check SUCCESS")
	}
	return nil
}
