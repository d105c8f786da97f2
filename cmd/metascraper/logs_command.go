package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"metascraper/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines    int
		follow   bool
		runID    string
		contains string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent log lines",
		Long: `Print the end of metascraper.log from paths.log_dir. --run keeps only
lines stamped with one run id (printed by resolve and batch reports), and
--follow keeps printing lines as they are appended.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if cfg.Paths.LogDir == "" {
				return errors.New("paths.log_dir is not set; logs go to stderr only")
			}
			path := filepath.Join(cfg.Paths.LogDir, "metascraper.log")
			filter := logs.Filter{RunID: runID, Contains: contains}

			out := cmd.OutOrStdout()
			recent, offset, err := logs.Last(path, lines, filter)
			if err != nil {
				return err
			}
			for _, line := range recent {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			err = logs.Follow(cmd.Context(), path, offset, filter, func(line string) {
				fmt.Fprintln(out, line)
			})
			if errors.Is(err, cmd.Context().Err()) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing appended lines")
	cmd.Flags().StringVar(&runID, "run", "", "Only lines for this run id")
	cmd.Flags().StringVar(&contains, "grep", "", "Only lines containing this text (case-insensitive)")
	return cmd
}
