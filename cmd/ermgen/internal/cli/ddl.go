package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/erm/compiler/load"
	"github.com/syssam/erm/dialect"
	"github.com/syssam/erm/dialect/sql"
	"github.com/syssam/erm/schema/field"
)

// DDLOptions holds flags for the ddl command.
type DDLOptions struct {
	*RootOptions
	Dialect string
	Entity  string
}

// NewDDLCommand creates the ddl command.
func NewDDLCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DDLOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ddl <schema.yaml>",
		Short: "Print the table statements Register executes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !dialect.Supported(opts.Dialect) {
				return fmt.Errorf("unsupported dialect %q", opts.Dialect)
			}
			entity, err := field.Parse(opts.Entity)
			if err != nil {
				return err
			}
			s, err := load.Load(args[0])
			if err != nil {
				return err
			}
			d := sql.Dialect(opts.Dialect)
			for _, c := range s.Components {
				fmt.Fprintf(cmd.OutOrStdout(), "%s;\n", d.CreateTable(c.Descriptor(), entity))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Dialect, "dialect", "d", dialect.SQLite, "SQL dialect (sqlite, mysql, postgres)")
	cmd.Flags().StringVar(&opts.Entity, "entity", "int64", "Go type of the entity identifier")

	return cmd
}
