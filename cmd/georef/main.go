package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/airbusgeo/georef/cmd"
	"github.com/airbusgeo/georef/internal/log"
	"github.com/airbusgeo/godal"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx = log.With(ctx, "run", uuid.New().String())

	godal.RegisterAll()

	if err := NewCmd().ExecuteContext(ctx); err != nil {
		log.Logger(ctx).Fatal("run error", zap.Error(err))
	}
}

// NewCmd creates the root command and its subcommands
func NewCmd() *cobra.Command {
	cobra.EnableCommandSorting = false

	var (
		console  bool
		logLevel string
	)
	rootCmd := &cobra.Command{
		Use:           "georef [command] [flags] [args]",
		Short:         "georef fits and inspects the georeferencing of grids",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			if console {
				log.Console()
			}
			if logLevel != "" {
				return log.SetLevel(logLevel)
			}
			return nil
		},
		Run: func(c *cobra.Command, args []string) {
			c.Print(c.UsageString())
		},
	}
	rootCmd.PersistentFlags().BoolVar(&console, "console", false, "human-readable logs")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "`<Level>` of the logs (debug, info, warn, error)")
	storageConfig := cmd.StorageConfigFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newFitCmd(storageConfig),
		newEnvelopeCmd(storageConfig),
		newDiscreteCmd(),
	)
	return rootCmd
}
