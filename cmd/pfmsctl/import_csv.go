package main

import (
	"fmt"
	"os"

	"pfms/internal/app"
	"pfms/pkg/config"

	"github.com/spf13/cobra"
)

func importCSVCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "import-csv [files...]",
		Short: "Import bank statement CSV files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(_ *config.Config, a *app.App) error {
				for _, path := range args {
					f, err := os.Open(path)
					if err != nil {
						return fmt.Errorf("failed to open %s: %w", path, err)
					}
					result, err := a.Ingest.ImportCSV(cmd.Context(), userID, f)
					f.Close()
					if err != nil {
						return fmt.Errorf("failed to import %s: %w", path, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: inserted %d, skipped %d\n", path, result.Inserted, result.Skipped)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "demo-user", "user id")
	return cmd
}
