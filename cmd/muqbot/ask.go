package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mohdmuqsith/muq-bot-rag/internal/annotate"
	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/entities"
	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/usecases"
)

func newAskCmd(c *cli) *cobra.Command {
	var (
		files       []string
		showContext bool
	)

	cmd := &cobra.Command{
		Use:   `ask --file FILE... "question"`,
		Short: "Answer one question from the given documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			ask, err := app.NewAskUseCase()
			if err != nil {
				return err
			}

			res, err := build(cmd, app, files)
			if err != nil {
				return err
			}
			session := usecases.NewSession()
			session.Load(res)

			answer, err := ask.Ask(cmd.Context(), session, args[0])
			if err != nil {
				return err
			}
			printAnswer(cmd.OutOrStdout(), answer, showContext)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "document to load (repeatable, order matters)")
	cmd.Flags().BoolVar(&showContext, "show-context", false, "print retrieved chunks, scores and triples")
	cmd.MarkFlagRequired("file")
	return cmd
}

func printAnswer(w io.Writer, answer *entities.Answer, showContext bool) {
	fmt.Fprintln(w, answer.Text)
	if !showContext {
		return
	}

	fmt.Fprintln(w, "\nRetrieved context:")
	for _, r := range answer.Results {
		fmt.Fprintf(w, "  Score: %.4f\n    %s\n", r.Score, preview(r.Chunk.Text, 180))
	}

	var triples []annotate.Triple
	for _, r := range answer.Results {
		triples = append(triples, annotate.Triples(r.Chunk.Text)...)
	}

	fmt.Fprintln(w, "\nTriples:")
	for _, t := range triples {
		fmt.Fprintf(w, "  • %s\n", t)
	}

	fmt.Fprintln(w, "\nRelations:")
	for _, t := range triples {
		fmt.Fprintf(w, "  %s\n", annotate.Relation(t.Subject, t.Predicate, t.Object))
	}
}

func preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
