package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vk/xenogen/internal/pipeline"
	"github.com/vk/xenogen/internal/specnode"
	"github.com/vk/xenogen/internal/template"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a spec against a template tree without generating",
		Long: `Validate parses the spec, loads the template registry, and
checks that every referenced template resolves. It does not expand
anything, so sampled values and guards are not exercised.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			specPath, _ := cmd.Flags().GetString("spec")
			templatesPath, _ := cmd.Flags().GetString("templates")

			node, err := specnode.HydrateFile(specPath)
			if err != nil {
				return fmt.Errorf("spec failed to hydrate: %w", err)
			}
			spec, err := pipeline.ParseSpec(node)
			if err != nil {
				return fmt.Errorf("spec failed to parse: %w", err)
			}

			registry := template.NewRegistry()
			if templatesPath != "" {
				registry, err = template.LoadTree(cmd.Context(), templatesPath)
				if err != nil {
					return err
				}
			}

			missing := missingTemplates(spec, registry)
			if len(missing) > 0 {
				for _, name := range missing {
					fmt.Printf("unresolved template: %s\n", name)
				}
				return fmt.Errorf("%d unresolved template reference(s)", len(missing))
			}

			fmt.Println("Spec is valid.")
			return nil
		},
	}

	cmd.Flags().String("spec", "", "Path to the generator spec (required)")
	cmd.Flags().String("templates", "", "Path to the template source tree")
	cmd.MarkFlagRequired("spec")
	return cmd
}

// missingTemplates walks the spec's instantiation and interaction
// entries collecting `_template_` references absent from the registry.
func missingTemplates(spec *pipeline.Spec, registry *template.Registry) []string {
	var missing []string
	seen := map[string]bool{}

	var walk func(directives *specnode.Node)
	walk = func(directives *specnode.Node) {
		if directives == nil {
			return
		}
		for _, key := range directives.Keys {
			body := directives.Children[key]
			if body == nil || !body.IsMap() {
				continue
			}
			if tplNode, ok := body.Get("_template_"); ok {
				if name, ok := tplNode.Value.(string); ok && name != "" {
					if !registry.Contains(name) && !seen[name] {
						seen[name] = true
						missing = append(missing, name)
					}
				}
			}
			if nested, ok := body.Get("_instantiate_"); ok {
				walk(nested)
			}
		}
	}

	walk(spec.Instantiate)
	walk(spec.Interactions)
	return missing
}
