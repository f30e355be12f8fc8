package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetOutput(os.Stderr)

	if err := newRootCmd(logger).ExecuteContext(ctx); err != nil {
		logger.Fatal(err)
	}
}

func newRootCmd(logger *logrus.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "curvectl",
		Short:         "Inspect asset curves and replay state of the paper trading ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newCurveCmd(logger),
		newJournalCmd(logger),
		newMigrateCmd(logger),
		newReplayCmd(logger),
	)
	return root
}
