package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"metascraper/internal/config"
	"metascraper/internal/media"
	"metascraper/internal/pipeline"
)

type resolveFlags struct {
	kind      string
	tmdbID    string
	imdbID    string
	output    string
	year      int
	aidSearch bool
	jsonOut   bool
}

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var flags resolveFlags

	cmd := &cobra.Command{
		Use:   "resolve [query]",
		Short: "Resolve one title and write its metadata folder",
		Long: `Resolve a movie or series by title, TMDB id, or IMDb id, then write the
descriptor files and artwork into <output>/<Title> (<Year>)/.

Examples:
  metascraper resolve "Oppenheimer"
  metascraper resolve --type tv --tmdb-id 1399
  metascraper resolve --omdb-id tt15398776 --json
  metascraper resolve "奥本海默" --aid-search`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if !cmd.Flags().Changed("aid-search") {
				flags.aidSearch = cfg.Pipeline.AidedSearch
			}
			req, err := flags.request(strings.Join(args, " "))
			if err != nil {
				return err
			}
			opts, err := runOptions(cfg, flags.output)
			if err != nil {
				return err
			}

			logger, err := ctx.logger(cfg)
			if err != nil {
				return fmt.Errorf("setup logging: %w", err)
			}
			sess, err := newSession(cfg, logger, opts)
			if err != nil {
				return err
			}
			defer sess.close()

			report, runErr := sess.runner.Run(cmd.Context(), req)
			sess.notifyReport(cmd.Context(), report)
			if flags.jsonOut {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				renderReport(out, report, shouldColorize(out))
			}
			return runErr
		},
	}

	cmd.Flags().StringVarP(&flags.kind, "type", "t", "", "Media type: movie, tv, or auto")
	cmd.Flags().StringVar(&flags.tmdbID, "tmdb-id", "", "TMDB id (requires --type)")
	cmd.Flags().StringVar(&flags.imdbID, "omdb-id", "", "IMDb id such as tt15398776")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output directory (defaults to paths.output_dir)")
	cmd.Flags().IntVar(&flags.year, "year", 0, "Release year hint for the catalog search")
	cmd.Flags().BoolVar(&flags.aidSearch, "aid-search", false, "Use web search when the catalog search finds nothing")
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "Print the run report as JSON")
	return cmd
}

func (f resolveFlags) request(query string) (media.Request, error) {
	kind, err := media.ParseKind(f.kind)
	if err != nil {
		return media.Request{}, err
	}
	req := media.Request{
		Query:       strings.TrimSpace(query),
		ExternalID:  strings.TrimSpace(f.tmdbID),
		SecondaryID: strings.TrimSpace(f.imdbID),
		Kind:        kind,
		AidedSearch: f.aidSearch,
		YearHint:    f.year,
	}
	if req.Query == "" && req.ExternalID == "" && req.SecondaryID == "" {
		return media.Request{}, errors.New("a query, --tmdb-id, or --omdb-id is required")
	}
	if req.ExternalID != "" && !kind.Concrete() {
		return media.Request{}, errors.New("--tmdb-id requires --type movie or --type tv")
	}
	return req, nil
}

// runOptions derives pipeline options from cfg with an optional output
// directory override.
func runOptions(cfg *config.Config, output string) (pipeline.Options, error) {
	opts := pipeline.OptionsFromConfig(cfg)
	if output = strings.TrimSpace(output); output != "" {
		dir, err := config.ExpandPath(output)
		if err != nil {
			return pipeline.Options{}, fmt.Errorf("resolve output directory: %w", err)
		}
		opts.OutputDir = dir
	}
	return opts, nil
}
