package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "xenogen",
		Short: "Xenogen - procedural scenario generator for synthetic chemistries",
		Long: `xenogen expands declarative scenario templates into partially
observable chemistry scenarios.

It loads a template registry, instantiates a generator spec with a
seed, validates the result with structural guards, and emits the
agent-facing scenario with opaque names alongside the retained
ground truth.`,
	}

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text or json)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newGenerateCmd(),
		newTemplatesCmd(),
		newHydrateCmd(),
		newValidateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
