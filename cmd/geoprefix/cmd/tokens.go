package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	geoerrors "github.com/Aman-CERP/geoprefix/internal/errors"
	"github.com/Aman-CERP/geoprefix/internal/output"
	"github.com/Aman-CERP/geoprefix/pkg/query"
)

type tokensOptions struct {
	km     float64
	format string
}

// tokenRow is one field the configured strategy would index.
type tokenRow struct {
	Field string   `json:"field"`
	Token string   `json:"token,omitempty"`
	Level int      `json:"level,omitempty"`
	Value *float64 `json:"value,omitempty"`
}

func newTokensCmd(global *globalOptions) *cobra.Command {
	var opts tokensOptions

	cmd := &cobra.Command{
		Use:   "tokens [flags] <lon> <lat>",
		Short: "Show the fields indexed for a point or circle",
		Long: `Show what the configured strategy writes to the index for a point, or for
a circle around it when --km is given. Grid strategies print cell tokens
with their level; the point-vector strategy prints coordinate values.

Flags go before the coordinates, so a negative latitude reads as a number.
A negative longitude needs -- in front of it.

Examples:
  geoprefix tokens 10.40744 57.64911
  geoprefix tokens --km 5 2.35 48.85
  geoprefix tokens 151.21 -33.87
  geoprefix tokens -- -73.98 40.75
  GEOPREFIX_GRID_KIND=quad geoprefix tokens --format json 0 0`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokens(cmd, global, args, opts)
		},
	}

	cmd.Flags().Float64Var(&opts.km, "km", 0, "Circle radius in km (0 = the point itself)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().SetInterspersed(false)

	return cmd
}

func runTokens(cmd *cobra.Command, global *globalOptions, args []string, opts tokensOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return geoerrors.InvalidArgumentError("unknown format %q (use text or json)", opts.format)
	}
	if opts.km < 0 {
		return geoerrors.InvalidArgumentError("--km must not be negative")
	}

	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}
	geoCtx, err := cfg.GeoContext()
	if err != nil {
		return err
	}
	strat, err := cfg.NewStrategy()
	if err != nil {
		return err
	}

	values, err := parseFields(args)
	if err != nil {
		return err
	}
	if opts.km > 0 {
		values = append(values, opts.km)
	}
	shape, err := shapeFromValues(geoCtx, values)
	if err != nil {
		return err
	}

	fields, err := strat.Fields(shape)
	if err != nil {
		return err
	}
	var rows []tokenRow
	for f := range fields {
		rows = append(rows, toTokenRow(f))
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Strategy string     `json:"strategy"`
			Shape    string     `json:"shape"`
			Fields   []tokenRow `json:"fields"`
		}{Strategy: fmt.Sprint(strat), Shape: shape.String(), Fields: rows})
	}

	out := output.New(cmd.OutOrStdout())
	out.Statusf("📍", "%s via %s", shape, strat)
	table := make([][]string, len(rows))
	for i, r := range rows {
		if r.Value != nil {
			table[i] = []string{r.Field, "", strconv.FormatFloat(*r.Value, 'g', -1, 64)}
		} else {
			table[i] = []string{r.Field, strconv.Itoa(r.Level), r.Token}
		}
	}
	out.Table([]string{"FIELD", "LEVEL", "VALUE"}, table)
	out.Statusf("", "%d fields", len(rows))
	return nil
}

func toTokenRow(f query.Field) tokenRow {
	if f.Numeric {
		v := f.Value
		return tokenRow{Field: f.Name, Value: &v}
	}
	return tokenRow{Field: f.Name, Token: f.Token, Level: len(f.Token)}
}
