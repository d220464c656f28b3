package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tally/internal/export"
)

func newExportCommand() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Write a session's ledger as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, done, err := loadEngine(cmd, args[0])
			if err != nil {
				return err
			}
			defer done()

			out := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("creating %s: %w", outPath, err)
				}
				defer f.Close()
				out = f
			}

			if err := export.Write(out, eng.ExportSnapshot()); err != nil {
				return fmt.Errorf("writing CSV: %w", err)
			}
			if outPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", eng.Len(), outPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to a file instead of stdout")

	return cmd
}
