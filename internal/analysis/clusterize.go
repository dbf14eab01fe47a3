package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/kart-io/logger"
	"github.com/spf13/cobra"
)

// newClusterizeCommand returns the one-shot subcommand that runs a
// single analysis session for a workspace and exits.
func newClusterizeCommand(opts *Options) *cobra.Command {
	var (
		days      int
		dataStart string
		dataEnd   string
	)

	cmd := &cobra.Command{
		Use:   "clusterize <workspace_id>",
		Short: "Run one analysis session for a workspace and exit",
		Long: `Run a single clustering and analysis session for the given workspace.

The analysis window defaults to the last --days days ending now.
Explicit --data-start and --data-end timestamps (RFC 3339) take
precedence over --days.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := opts.Complete(); err != nil {
				return err
			}
			if err := opts.Validate(); err != nil {
				return err
			}

			start, end, err := resolveWindow(days, dataStart, dataEnd)
			if err != nil {
				return err
			}
			return runClusterize(opts, args[0], start, end)
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "Width of the analysis window in days, ending now.")
	cmd.Flags().StringVar(&dataStart, "data-start", "", "Window start as RFC 3339 timestamp. Overrides --days.")
	cmd.Flags().StringVar(&dataEnd, "data-end", "", "Window end as RFC 3339 timestamp. Defaults to now.")

	// The subcommand bypasses the root command's flag handling, so it
	// carries the full option flag surface itself.
	fss := opts.Flags()
	for _, name := range fss.Order {
		cmd.Flags().AddFlagSet(fss.FlagSets[name])
	}

	return cmd
}

func resolveWindow(days int, dataStart, dataEnd string) (time.Time, time.Time, error) {
	end := time.Now().UTC()
	if dataEnd != "" {
		t, err := time.Parse(time.RFC3339, dataEnd)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --data-end: %w", err)
		}
		end = t
	}

	if dataStart != "" {
		t, err := time.Parse(time.RFC3339, dataStart)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --data-start: %w", err)
		}
		return t, end, nil
	}
	if days <= 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("--days must be positive")
	}
	return end.AddDate(0, 0, -days), end, nil
}

func runClusterize(opts *Options, workspaceID string, dataStart, dataEnd time.Time) error {
	opts.Log.AddInitialField("service.name", appName)
	if err := opts.Log.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := buildPipeline(ctx, opts)
	if err != nil {
		return err
	}
	defer p.close()

	logger.Infow("running one-shot analysis",
		"workspace_id", workspaceID,
		"data_start", dataStart,
		"data_end", dataEnd,
	)
	sessionID, err := p.orchestrator.Run(ctx, workspaceID, dataStart, dataEnd)
	if err != nil {
		if sessionID != "" {
			logger.Errorw("analysis session failed", "session_id", sessionID, "error", err)
		}
		return err
	}

	logger.Infow("analysis session completed", "session_id", sessionID)
	fmt.Println(sessionID)
	return nil
}
