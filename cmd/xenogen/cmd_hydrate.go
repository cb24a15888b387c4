package main

import (
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vk/xenogen/internal/specnode"
)

func newHydrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hydrate <file>",
		Short: "Hydrate a document and print its resolved form",
		Long: `Hydrate parses a document, resolves includes, and prints the
typed tree back as YAML with placeholder markers preserved. Useful
for debugging include chains and tag usage without running a
generation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, err := specnode.HydrateFile(args[0])
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(specnode.Dehydrate(node))
		},
	}
	return cmd
}
