package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/escalopa/arud-bot/internal/application"
)

var errNoSession = errors.New("no analysis yet; run `arud analyze` first")

func newLastCommand(ctx *commandContext) *cobra.Command {
	var format string
	var debug bool
	var poem bool

	cmd := &cobra.Command{
		Use:   "last",
		Short: "Show the last analysis again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			return ctx.withService(func(service *application.AnalysisService, logger *zap.Logger) error {
				res, ok := service.Last(cmd.Context(), "")
				if !ok {
					return errNoSession
				}
				if poem {
					_, err := cmd.OutOrStdout().Write([]byte(res.Poem))
					return err
				}
				return writeResult(cmd, ctx, res, format, debug)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, table, json or report")
	cmd.Flags().BoolVar(&debug, "debug", false, "Include the raw JSON of every verse")
	cmd.Flags().BoolVar(&poem, "poem", false, "Print the submitted poem instead of the results")
	return cmd
}
