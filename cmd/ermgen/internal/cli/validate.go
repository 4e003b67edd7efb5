package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/syssam/erm/compiler/load"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema.yaml>",
		Short: "Check a schema file without generating code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := load.Load(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "package %s: %d components, %d archetypes\n", s.Package, len(s.Components), len(s.Archetypes))
			if !rootOpts.Verbose {
				return nil
			}
			for _, c := range s.Components {
				fmt.Fprintf(out, "  component %s (table %s, %d columns)\n", c.Name, c.Table, len(c.Fields))
			}
			for _, a := range s.Archetypes {
				flat, err := s.Flatten(a.Name)
				if err != nil {
					return err
				}
				tables := make([]string, len(flat))
				for i, c := range flat {
					tables[i] = c.Table
				}
				fmt.Fprintf(out, "  archetype %s (%s)\n", a.Name, strings.Join(tables, ", "))
			}
			return nil
		},
	}

	return cmd
}
