package main

import (
	"encoding/json"
	"fmt"

	appreplay "papertrader/internal/application/service/replay"
	replaystate "papertrader/internal/domain/entity/replay"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newMigrateCmd(logger *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create ledger, kline and config tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer e.close()

			if err := e.migrate(cmd.Context()); err != nil {
				return err
			}
			logger.Info("schema is up to date")
			return nil
		},
	}
}

func newReplayCmd(logger *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Inspect the persisted replay session",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "state",
		Short: "Print the persisted replay configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer e.close()

			raw, ok, err := e.configs.Get(cmd.Context(), appreplay.KeyReplayConfig)
			if err != nil {
				return fmt.Errorf("read %s: %w", appreplay.KeyReplayConfig, err)
			}
			out := cmd.OutOrStdout()
			if !ok || raw == "" || raw == "{}" {
				fmt.Fprintln(out, "replay inactive")
				return nil
			}

			var cfg replaystate.Config
			if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
				return fmt.Errorf("decode %s: %w", appreplay.KeyReplayConfig, err)
			}
			if !cfg.Active {
				fmt.Fprintln(out, "replay inactive")
				return nil
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		},
	})
	return cmd
}
