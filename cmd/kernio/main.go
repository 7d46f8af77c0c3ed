// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "kernio",
		Short: "Exercise the kernio IO port from the command line",
		Long: `kernio drives the IO port subsystem: a bounded multi-producer,
multi-consumer packet queue doubling as a signal dispatcher for waitable
kernel objects.`,
	}

	rootCmd.AddCommand(
		newBenchCommand(),
		newDemoCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
