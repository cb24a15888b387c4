package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vk/xenogen/internal/app"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a scenario from a spec and a seed",
		Long: `Generate expands a generator spec into a scenario.

The spec's _instantiate_ block is expanded against the template
registry, guards are applied, and the visible scenario is written
to stdout (or --output) as YAML.

Examples:
  xenogen generate --spec spec.yaml --templates templates/ --seed 42
  xenogen generate --spec spec.yaml --seed 42 --full --param depth=3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			specPath, _ := cmd.Flags().GetString("spec")
			templatesPath, _ := cmd.Flags().GetString("templates")
			seed, _ := cmd.Flags().GetInt64("seed")
			full, _ := cmd.Flags().GetBool("full")
			output, _ := cmd.Flags().GetString("output")
			rawParams, _ := cmd.Flags().GetStringSlice("param")

			params, err := parseParams(rawParams)
			if err != nil {
				return err
			}

			outW := os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				outW = f
			}

			cfg, err := app.NewConfig(app.Config{
				SpecPath:      specPath,
				TemplatesPath: templatesPath,
				Seed:          seed,
				Params:        params,
				FullTruth:     full,
				LogLevel:      flagString(cmd, "log-level"),
				LogFormat:     flagString(cmd, "log-format"),
			})
			if err != nil {
				return err
			}

			a, err := app.NewApp(outW, os.Stderr, cfg)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}

	cmd.Flags().String("spec", "", "Path to the generator spec (required)")
	cmd.Flags().String("templates", "", "Path to the template source tree")
	cmd.Flags().Int64("seed", 0, "Random seed; the sole source of randomness")
	cmd.Flags().Bool("full", false, "Include ground truth and visibility mapping in output")
	cmd.Flags().String("output", "", "Write output to a file instead of stdout")
	cmd.Flags().StringSlice("param", nil, "Spec parameter override, key=value (repeatable)")
	cmd.MarkFlagRequired("spec")

	return cmd
}

// parseParams turns key=value flags into overrides, keeping numeric
// values numeric so expressions can use them.
func parseParams(raw []string) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(raw))
	for _, entry := range raw {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --param '%s': expected key=value", entry)
		}
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			params[key] = n
		} else if f, err := strconv.ParseFloat(value, 64); err == nil {
			params[key] = f
		} else {
			params[key] = value
		}
	}
	return params, nil
}

func flagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}
