package main

import (
	"fmt"

	appcurve "papertrader/internal/application/service/curve"
	curve "papertrader/internal/domain/entity/curve"
	"papertrader/internal/infrastructure/journal"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newCurveCmd(logger *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Compute asset curves for all accounts or a single one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			accountID, _ := cmd.Flags().GetInt64("account")
			timeframe, _ := cmd.Flags().GetString("timeframe")
			format, _ := cmd.Flags().GetString("format")
			journalPath, _ := cmd.Flags().GetString("journal")

			ctx := cmd.Context()
			e, err := openEnv(ctx, logger)
			if err != nil {
				return err
			}
			defer e.close()

			aggregator, err := e.aggregator(ctx, logger)
			if err != nil {
				return err
			}

			tf := curve.ParseTimeframe(timeframe)
			var points []curve.Point
			if accountID > 0 {
				points, err = aggregator.SingleAccount(ctx, accountID, tf)
			} else {
				points, err = aggregator.AllAccounts(ctx, tf)
			}
			if err != nil {
				return fmt.Errorf("build curve: %w", err)
			}
			appcurve.SortPoints(points)

			if journalPath != "" {
				runID := uuid.NewString()
				if err := saveRun(cmd, journalPath, runID, tf, points); err != nil {
					return err
				}
				logger.Infof("saved %d points as run %s", len(points), runID)
			}
			return render(cmd.OutOrStdout(), format, points)
		},
	}
	cmd.Flags().Int64("account", 0, "account id, all accounts when zero")
	cmd.Flags().String("timeframe", string(curve.DefaultTimeframe), "checkpoint spacing: 5m, 1h or 1d")
	cmd.Flags().String("format", formatTable, "output format: table, csv or json")
	cmd.Flags().String("journal", "", "sqlite file to save the computed curve into")
	return cmd
}

func saveRun(cmd *cobra.Command, path, runID string, tf curve.Timeframe, points []curve.Point) error {
	j, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer j.Close()
	if err := j.SaveCurve(cmd.Context(), runID, tf, points); err != nil {
		return fmt.Errorf("save curve run: %w", err)
	}
	return nil
}

func newJournalCmd(logger *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Browse curves saved with curve --journal",
	}
	cmd.PersistentFlags().String("file", "curves.db", "sqlite journal file")

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("file")
			j, err := journal.Open(path)
			if err != nil {
				return err
			}
			defer j.Close()

			runs, err := j.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range runs {
				fmt.Fprintf(out, "%s\t%s\t%s\t%d\n", r.ID, r.Timeframe, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Points)
			}
			logger.Debugf("%d runs in %s", len(runs), path)
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Print a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			format, _ := cmd.Flags().GetString("format")
			j, err := journal.Open(path)
			if err != nil {
				return err
			}
			defer j.Close()

			points, err := j.LoadCurve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), format, points)
		},
	}
	show.Flags().String("format", formatTable, "output format: table, csv or json")

	cmd.AddCommand(list, show)
	return cmd
}
