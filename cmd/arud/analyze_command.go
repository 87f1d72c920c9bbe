package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/escalopa/arud-bot/internal/application"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var format string
	var debug bool
	var example string

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyse a poem from a file or stdin, one verse per line",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}

			poem, err := readPoem(cmd, args, example)
			if err != nil {
				return err
			}

			return ctx.withService(func(service *application.AnalysisService, logger *zap.Logger) error {
				lock, err := ctx.lockAnalysis()
				if err != nil {
					return err
				}
				defer lock.Unlock()

				res, err := service.Analyze(cmd.Context(), "", poem)
				if err != nil {
					return err
				}
				return writeResult(cmd, ctx, res, format, debug)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, table, json or report")
	cmd.Flags().BoolVar(&debug, "debug", false, "Include the raw JSON of every verse")
	cmd.Flags().StringVar(&example, "example", "", "Analyse a built-in sample poem (see `arud examples`)")
	return cmd
}

// readPoem reads the named file, stdin for "-" or no argument, or a sample poem
func readPoem(cmd *cobra.Command, args []string, example string) (string, error) {
	if example != "" {
		if len(args) > 0 {
			return "", fmt.Errorf("--example cannot be combined with a file")
		}
		return examplePoem(example)
	}

	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return "", fmt.Errorf("open poem: %w", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read poem: %w", err)
	}
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}
