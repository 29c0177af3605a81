// Command nimg builds and inspects files in the nimg container format.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagVerbose int
	flagQuiet   int
)

var rootCmd = &cobra.Command{
	Use:           "nimg",
	Short:         "Build and inspect nimg container files",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

func setupLogging() {
	level := slog.LevelInfo
	switch {
	case flagQuiet > 0:
		level = slog.LevelError
	case flagVerbose > 0:
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&flagVerbose, "verbose", "v", "enable debug logging")
	rootCmd.PersistentFlags().CountVarP(&flagQuiet, "quiet", "q", "log errors only; commands may give -q extra meaning")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if err.Error() != "" {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
