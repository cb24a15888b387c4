package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vk/xenogen/internal/template"
)

func newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the templates in a source tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("templates")

			registry, err := template.LoadTree(cmd.Context(), root)
			if err != nil {
				return err
			}

			names := registry.Names()
			if len(names) == 0 {
				fmt.Println("No templates found.")
				return nil
			}
			for _, name := range names {
				tpl, err := registry.Get(name)
				if err != nil {
					return err
				}
				fmt.Printf("%s\t(molecules: %d, reactions: %d, ports: %d)\n",
					name, len(tpl.MoleculeNames()), len(tpl.ReactionNames()), len(tpl.Ports))
			}
			return nil
		},
	}

	cmd.Flags().String("templates", ".", "Path to the template source tree")
	return cmd
}
