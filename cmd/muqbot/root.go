package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-logr/logr"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/mohdmuqsith/muq-bot-rag/internal/bootstrap"
	"github.com/mohdmuqsith/muq-bot-rag/internal/config"
	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/usecases"
	applog "github.com/mohdmuqsith/muq-bot-rag/internal/infrastructure/log"
)

// cli carries what PersistentPreRunE loads into every subcommand.
type cli struct {
	cfgFile string
	cfg     *config.Config
	log     logr.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{log: logr.Discard()}

	root := &cobra.Command{
		Use:          "muqbot",
		Short:        "Ask questions about your slides, PDFs and Word documents",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.cfgFile)
			if err != nil {
				return err
			}
			logger, err := applog.New(cfg.Log.Level, cfg.Log.Development)
			if err != nil {
				return err
			}
			c.cfg, c.log = cfg, logger
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default ./muqbot.yaml)")

	root.AddCommand(
		newBuildCmd(c),
		newAskCmd(c),
		newChatCmd(c),
		newServeCmd(c),
		newWatchCmd(c),
		newConfigCmd(c),
	)
	return root
}

func (c *cli) app(ctx context.Context) (*bootstrap.App, error) {
	return bootstrap.New(ctx, c.cfg, c.log)
}

// withSpinner shows an indeterminate spinner on w while fn runs.
func withSpinner(w io.Writer, description string, fn func() error) error {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				bar.Add(1)
			}
		}
	}()

	err := fn()
	close(done)
	bar.Finish()
	return err
}

func printBuild(w io.Writer, res *usecases.BuildResult) {
	source := "built"
	if res.FromCache {
		source = "loaded from cache"
	}
	fmt.Fprintf(w, "knowledge base %s: %s, %d chunks\n", res.Fingerprint, source, res.Chunks)
	for _, f := range res.Failures {
		fmt.Fprintf(w, "  skipped %s: %v\n", f.Document, f.Err)
	}
}
