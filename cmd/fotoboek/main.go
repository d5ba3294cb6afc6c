package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fotoboek/internal/logging"
	"fotoboek/internal/startup"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fotoboek: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "fotoboek",
		Short: "Photo and video library pipeline",
		Long: `fotoboek registers the images and videos below a media directory and
processes them through a persistent task queue: metadata extraction, preview
generation and WebM transcoding. Configuration is read from the environment
and an optional .env file.`,
		Version:      startup.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if logLevel == "" {
				return nil
			}
			level, ok := logging.ParseLevel(logLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", logLevel)
			}
			logging.SetLevel(level)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCmd(),
		newScanCmd(),
		newAddCmd(),
		newTasksCmd(),
		newWorkCmd(),
	)
	return cmd
}
