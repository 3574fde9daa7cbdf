package main

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpserver "github.com/mohdmuqsith/muq-bot-rag/internal/infrastructure/http"
)

func newServeCmd(c *cli) *cobra.Command {
	var (
		addr     string
		watchDir string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API",
		Long: `Serve starts an HTTP server holding one session. With --watch the
documents of a directory are loaded at startup and reloaded when they change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.cfg.Server.Addr
			}

			app, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			ask, err := app.NewAskUseCase()
			if err != nil {
				return err
			}
			server := httpserver.NewServer(app.Pipeline, ask, addr, c.log)

			g, ctx := errgroup.WithContext(cmd.Context())
			if watchDir != "" {
				watch, watcher, err := app.NewWatchUseCase()
				if err != nil {
					return err
				}
				defer watcher.Stop()

				g.Go(func() error {
					return watch.Run(ctx, watchDir, server.LoadKnowledgeBase)
				})
			}
			g.Go(func() error {
				return server.Start(ctx)
			})

			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	cmd.Flags().StringVar(&watchDir, "watch", "", "directory whose documents form the knowledge base")
	return cmd
}
