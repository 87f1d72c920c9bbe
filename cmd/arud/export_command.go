package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/escalopa/arud-bot/internal/analysis"
	"github.com/escalopa/arud-bot/internal/application"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:       "export json|report",
		Short:     "Export the last analysis as JSON or as a text report",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{formatJSON, formatReport},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(service *application.AnalysisService, logger *zap.Logger) error {
				res, ok := service.Last(cmd.Context(), "")
				if !ok {
					return errNoSession
				}

				var buf bytes.Buffer
				var err error
				if args[0] == formatJSON {
					err = analysis.WriteJSON(&buf, res.Analysis.Raw)
				} else {
					err = analysis.WriteReport(&buf, res.Analysis, res.Summary(), res.InputLines)
				}
				if err != nil {
					return err
				}

				if output == "" || output == "-" {
					_, err = cmd.OutOrStdout().Write(buf.Bytes())
					return err
				}
				if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				logger.Info("exported analysis", zap.String("format", args[0]), zap.String("path", output))
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}
