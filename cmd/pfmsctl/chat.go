package main

import (
	"bufio"
	"fmt"
	"strings"

	"pfms/internal/app"
	"pfms/pkg/config"

	"github.com/spf13/cobra"
)

func chatCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "chat [query]",
		Short: "Ask the assistant a question",
		Long: `Send one query, or start an interactive session when no query is given.

Examples:
  pfmsctl chat --user demo-user "how much did I spend on food?"
  pfmsctl chat --user demo-user`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(_ *config.Config, a *app.App) error {
				if len(args) > 0 {
					return ask(cmd, a, userID, strings.Join(args, " "))
				}

				scanner := bufio.NewScanner(cmd.InOrStdin())
				fmt.Fprint(cmd.OutOrStdout(), "> ")
				for scanner.Scan() {
					query := strings.TrimSpace(scanner.Text())
					if query == "exit" || query == "quit" {
						return nil
					}
					if query != "" {
						if err := ask(cmd, a, userID, query); err != nil {
							fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
						}
					}
					fmt.Fprint(cmd.OutOrStdout(), "> ")
				}
				return scanner.Err()
			})
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "demo-user", "user id")
	return cmd
}

func ask(cmd *cobra.Command, a *app.App, userID, query string) error {
	turn, err := a.Chat.Chat(cmd.Context(), userID, query)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, turn.Reply)
	if turn.Action != nil {
		fmt.Fprintf(out, "[%s %s] %s", turn.Action.Kind, turn.Action.Target, turn.Result.Status)
		if turn.Result.Affected > 0 {
			fmt.Fprintf(out, " (%d)", turn.Result.Affected)
		}
		if turn.Result.Reason != "" {
			fmt.Fprintf(out, ": %s", turn.Result.Reason)
		}
		fmt.Fprintln(out)
	}
	return nil
}
