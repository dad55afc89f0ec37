package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lumahq/luma/internal/interfaces/cli/migrate"
	"github.com/lumahq/luma/internal/interfaces/cli/server"
	"github.com/lumahq/luma/internal/interfaces/cli/worker"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "luma",
		Short: "Luma subscription billing lifecycle engine",
		Long:  `Luma manages the subscription billing lifecycle: payment failure handling, dunning retries, suspension with win-back, cancellation saves, and reactivation.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		worker.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
