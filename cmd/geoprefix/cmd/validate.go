package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/geoprefix/internal/output"
	"github.com/Aman-CERP/geoprefix/internal/validation"
)

func newValidateCmd(global *globalOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "validate <queries.yaml>",
		Short: "Run a query suite against the index",
		Long: `Run the queries in a YAML suite against the index and compare the returned
IDs with the expected ones. Queries under "exact" must return exactly the
expected IDs, "contains" queries at least those, and "negative" queries must
be rejected.

The command fails when any query fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			suite, err := validation.LoadQueries(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}
			geoCtx, err := cfg.GeoContext()
			if err != nil {
				return err
			}
			if err := checkManifest(cfg); err != nil {
				return err
			}
			eng, err := openEngine(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()

			v, err := validation.NewValidator(eng.searcher, geoCtx)
			if err != nil {
				return err
			}
			result := v.RunAll(cmd.Context(), suite)

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return err
				}
			} else {
				writeValidation(output.New(cmd.OutOrStdout()), result)
			}

			if result.Failed() > 0 {
				return fmt.Errorf("%d of %d validation queries failed", result.Failed(), result.Total)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")

	return cmd
}

func writeValidation(out *output.Writer, result *validation.ValidationResult) {
	rows := make([][]string, 0, len(result.Results))
	for _, r := range result.Results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		rows = append(rows, []string{status, r.Spec.ID, string(r.Spec.Suite), r.Spec.Name, validationDetail(r)})
	}
	out.Table([]string{"STATUS", "ID", "SUITE", "NAME", "DETAIL"}, rows)
	out.Newline()

	if result.Failed() == 0 {
		out.Successf("%d of %d queries passed", result.Passed, result.Total)
	} else {
		out.Warningf("%d of %d queries passed", result.Passed, result.Total)
	}
}

func validationDetail(r validation.TestResult) string {
	var parts []string
	if len(r.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(r.Missing, ","))
	}
	if len(r.Unexpected) > 0 {
		parts = append(parts, "unexpected "+strings.Join(r.Unexpected, ","))
	}
	if r.Error != "" {
		parts = append(parts, r.Error)
	}
	if r.Passed && r.Spec.Suite != validation.SuiteNegative {
		parts = append(parts, fmt.Sprintf("%d results", len(r.Results)))
	}
	return strings.Join(parts, "; ")
}
