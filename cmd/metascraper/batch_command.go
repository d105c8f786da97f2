package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"metascraper/internal/config"
	"metascraper/internal/logging"
	"metascraper/internal/media"
	"metascraper/internal/scan"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var (
		kindFlag  string
		output    string
		inPlace   bool
		localNFO  bool
		aidSearch bool
		jsonOut   bool
	)

	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Resolve every title found in a folder",
		Long: `Scan a folder one level deep and resolve each title in turn. Subfolders
holding video files are one title each; loose video files are grouped by the
title parsed from their names. With --in-place the folder itself is the
title and its metadata is written into it. With --use-local-nfo a folder
that already holds a movie or tvshow descriptor is resolved by the TMDB id
recorded there instead of by its name.

A failed title is reported and the batch moves on to the next one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if !cmd.Flags().Changed("aid-search") {
				aidSearch = cfg.Pipeline.AidedSearch
			}
			kind, err := media.ParseKind(kindFlag)
			if err != nil {
				return err
			}
			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve directory: %w", err)
			}
			opts, err := runOptions(cfg, output)
			if err != nil {
				return err
			}

			logger, err := ctx.logger(cfg)
			if err != nil {
				return fmt.Errorf("setup logging: %w", err)
			}
			items, err := scan.Dir(dir, scan.Options{Kind: kind, InPlace: inPlace, UseLocalNFO: localNFO}, logging.NewComponentLogger(logger, "scan"))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				if jsonOut {
					return writeJSON(cmd, []*media.Report{})
				}
				fmt.Fprintf(out, "No titles found in %s\n", dir)
				return nil
			}
			logger.Info("batch scan complete",
				logging.String(logging.FieldEventType, "batch_scan"),
				logging.String("dir", dir),
				logging.Int("items", len(items)),
				logging.Bool("in_place", inPlace))

			sess, err := newSession(cfg, logger, opts)
			if err != nil {
				return err
			}
			defer sess.close()

			reqs := make([]media.Request, 0, len(items))
			for _, item := range items {
				reqs = append(reqs, item.Request(aidSearch))
			}
			started := time.Now()
			reports, runErr := sess.runner.RunBatch(cmd.Context(), reqs)
			sess.notifyBatch(cmd.Context(), reports, time.Since(started))

			if jsonOut {
				if err := writeJSON(cmd, reports); err != nil {
					return err
				}
			} else {
				renderBatchSummary(out, reports, shouldColorize(out))
			}
			if runErr != nil {
				return runErr
			}
			failed := 0
			for _, r := range reports {
				if !r.Succeeded() {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d titles failed", failed, len(reports))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&kindFlag, "type", "t", "", "Media type for every title: movie, tv, or auto")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (defaults to paths.output_dir)")
	cmd.Flags().BoolVar(&inPlace, "in-place", false, "Treat the folder itself as the title and write metadata into it")
	cmd.Flags().BoolVar(&localNFO, "use-local-nfo", false, "Resolve folders by the TMDB id in their existing .nfo files")
	cmd.Flags().BoolVar(&aidSearch, "aid-search", false, "Use web search when the catalog search finds nothing")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the run reports as JSON")
	return cmd
}
