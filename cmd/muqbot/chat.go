package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/usecases"
)

func newChatCmd(c *cli) *cobra.Command {
	var showContext bool

	cmd := &cobra.Command{
		Use:   "chat FILE...",
		Short: "Ask questions interactively; /history shows the conversation, /quit exits",
		Args:  cobra.MinimumNArgs(1),
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

			res, err := build(cmd, app, args)
			if err != nil {
				return err
			}
			session := usecases.NewSession()
			session.Load(res)

			out := cmd.OutOrStdout()
			in := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !in.Scan() {
					return in.Err()
				}

				line := strings.TrimSpace(in.Text())
				switch line {
				case "":
					continue
				case "/quit", "/exit":
					return nil
				case "/history":
					for _, m := range session.History() {
						fmt.Fprintf(out, "%s: %s\n", m.Role, m.Content)
					}
					continue
				}

				answer, err := ask.Ask(cmd.Context(), session, line)
				if err != nil {
					if errors.Is(err, cmd.Context().Err()) {
						return nil
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
					continue
				}
				printAnswer(out, answer, showContext)
			}
		},
	}
	cmd.Flags().BoolVar(&showContext, "show-context", false, "print retrieved chunks, scores and triples")
	return cmd
}
