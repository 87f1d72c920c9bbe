package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/escalopa/arud-bot/internal/application"
	"github.com/escalopa/arud-bot/internal/domain"
)

func newBahrCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "bahr [name]",
		Short: "Show the name and foot pattern of a meter",
		Long: "Show the name and foot pattern of a meter. The name may be transliterated (taweel) or Arabic (الطويل).\n" +
			"Without a name the known meters are listed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				meters := domain.GetAllMeters()
				rows := make([][]string, len(meters))
				for i, m := range meters {
					rows[i] = []string{strconv.Itoa(i + 1), m.Key, m.Arabic}
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"#", "Name", "Arabic"}, rows, []columnAlignment{alignRight}))
				return nil
			}
			return ctx.withService(func(service *application.AnalysisService, logger *zap.Logger) error {
				info, err := service.BahrInfo(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, info)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", info.Name, info.Pattern)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newValidateCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <verse>",
		Short: "Check that a single verse is acceptable input",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(service *application.AnalysisService, logger *zap.Logger) error {
				ok, err := service.Validate(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("verse is not valid input")
				}
				fmt.Fprintln(cmd.OutOrStdout(), "valid")
				return nil
			})
		},
	}
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether the analysis service is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(service *application.AnalysisService, logger *zap.Logger) error {
				status, err := service.Status(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, status)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s %s: %s\n", status.Service, status.Version, status.Status)
				if len(status.Endpoints) == 0 {
					return nil
				}
				names := make([]string, 0, len(status.Endpoints))
				for name := range status.Endpoints {
					names = append(names, name)
				}
				sort.Strings(names)
				rows := make([][]string, len(names))
				for i, name := range names {
					rows[i] = []string{name, status.Endpoints[name]}
				}
				fmt.Fprintln(out, renderTable([]string{"Endpoint", "Route"}, rows, nil))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newExamplesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "examples [name]",
		Short:       "List the sample poems or print one",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				poem, err := examplePoem(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, poem)
				return nil
			}

			examples := domain.GetAllExamples()
			rows := make([][]string, len(examples))
			for i, ex := range examples {
				first, _, _ := strings.Cut(ex.Poem, "\n")
				rows[i] = []string{ex.Key, ex.Title, first}
			}
			fmt.Fprintln(out, renderTable([]string{"Name", "Meter", "First verse"}, rows, nil))
			return nil
		},
	}
	return cmd
}

func examplePoem(name string) (string, error) {
	ex, ok := domain.LookupExample(strings.ToLower(strings.TrimSpace(name)))
	if !ok {
		return "", fmt.Errorf("unknown example %q; run `arud examples` to list them", name)
	}
	return ex.Poem, nil
}
