package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docintel/internal/export"
)

var (
	exportUserID string
	exportOut    string
)

var exportReviewCmd = &cobra.Command{
	Use:   "export-review",
	Short: "Write the W-9 review queue of a user to an XLSX file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportUserID == "" {
			return errors.New("--user is required")
		}
		ctx := cmd.Context()
		laborers, err := openLaborers(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer laborers.Close()

		out, err := export.NewService(laborers, logger).ReviewQueueXLSX(ctx, exportUserID)
		if err != nil {
			return err
		}
		if err := os.WriteFile(exportOut, out, 0o644); err != nil {
			return err
		}
		logger.Info("review queue written", "path", exportOut, "bytes", len(out))
		return nil
	},
}

func init() {
	exportReviewCmd.Flags().StringVar(&exportUserID, "user", "", "user id whose laborers to export")
	exportReviewCmd.Flags().StringVar(&exportOut, "out", "w9-review-queue.xlsx", "output file")
}
