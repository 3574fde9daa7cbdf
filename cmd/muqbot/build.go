package main

import (
	"github.com/spf13/cobra"

	"github.com/mohdmuqsith/muq-bot-rag/internal/adapters/extractor"
	"github.com/mohdmuqsith/muq-bot-rag/internal/bootstrap"
	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/usecases"
)

func newBuildCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "build FILE...",
		Short: "Build or load the knowledge base for a set of documents",
		Long: `Build extracts, chunks and embeds the given documents and stores the
knowledge base in the cache. The same files, in the same order, load from the
cache on later runs.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			_, err = build(cmd, app, args)
			return err
		},
	}
}

// build reads files and returns their knowledge base, showing a spinner.
func build(cmd *cobra.Command, app *bootstrap.App, files []string) (*usecases.BuildResult, error) {
	docs, err := extractor.ReadFiles(files)
	if err != nil {
		return nil, err
	}

	var res *usecases.BuildResult
	err = withSpinner(cmd.ErrOrStderr(), "building knowledge base", func() error {
		var buildErr error
		res, buildErr = app.Pipeline.BuildOrLoad(cmd.Context(), docs)
		return buildErr
	})
	if err != nil {
		return nil, err
	}
	printBuild(cmd.OutOrStdout(), res)
	return res, nil
}
