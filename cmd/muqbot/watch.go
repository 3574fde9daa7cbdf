package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/usecases"
)

func newWatchCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "watch DIR",
		Short: "Keep the cached knowledge base of a directory up to date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			watch, watcher, err := app.NewWatchUseCase()
			if err != nil {
				return err
			}
			defer watcher.Stop()

			fmt.Fprintf(cmd.OutOrStdout(), "watching %s\n", args[0])
			return watch.Run(cmd.Context(), args[0], func(res *usecases.BuildResult) {
				printBuild(cmd.OutOrStdout(), res)
			})
		},
	}
}
