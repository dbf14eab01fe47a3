package app

import (
	"fmt"

	"github.com/kart-io/newsloom/pkg/infra/app"
	errs "github.com/kart-io/newsloom/pkg/utils/errors"
)

const (
	appName        = "newsloom-analysis"
	appDescription = `Newsloom Analysis Core

The clustering and analysis service for the Newsloom platform.

This server provides:
  - HDBSCAN density clustering over article embeddings
  - LLM-generated cluster overviews and relevance evaluation
  - Per-article relevance filtering
  - Session summaries and conversation starters
  - An admin REST API for workspaces, tasks, sessions and clusters

A background watcher polls for pending analysis tasks. A single
workspace can also be analyzed once via the clusterize subcommand.`
)

// Exit codes for one-shot invocations.
const (
	exitOK                = 0
	exitConfigError       = 1
	exitWorkspaceNotFound = 2
)

// NewApp creates a new application instance.
func NewApp() *app.App {
	opts := NewOptions()

	a := app.NewApp(
		app.WithName(appName),
		app.WithDescription(appDescription),
		app.WithOptions(opts),
		app.WithRunFunc(func() error {
			return Run(opts)
		}),
		app.WithExitCodeFunc(exitCode),
	)
	a.Command().AddCommand(newClusterizeCommand(opts))
	return a
}

// exitCode maps run errors to process exit codes.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errs.IsCode(err, errs.ErrWorkspaceNotFound.Code) {
		return exitWorkspaceNotFound
	}
	return exitConfigError
}

func printBanner(_ *Options) {
	fmt.Printf("Starting %s...\n", appName)
}
