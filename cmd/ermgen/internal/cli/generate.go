package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/syssam/erm/compiler/gen"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Target  string
	Package string
	Header  string
	Workers int
	Prune   bool
	Watch   bool
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <schema.yaml>",
		Short: "Generate Go components from a schema file",
		Long: `Generate one file per component and archetype, plus a package file
with Components and Register helpers.

With --watch the schema file is watched and the package regenerated on
every save until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Target, "target", "t", "", "output directory (default: the schema file's directory)")
	cmd.Flags().StringVarP(&opts.Package, "package", "p", "", "package name (default: the schema's package)")
	cmd.Flags().StringVar(&opts.Header, "header", gen.DefaultHeader, "header comment of generated files")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "files rendered in parallel (default: GOMAXPROCS)")
	cmd.Flags().BoolVar(&opts.Prune, "prune", false, "remove generated files the schema no longer produces")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "regenerate when the schema file changes")

	return cmd
}

func (o *GenerateOptions) options(path string) []gen.Option {
	target := o.Target
	if target == "" {
		target = filepath.Dir(path)
	}
	opts := []gen.Option{gen.WithTarget(target), gen.WithHeader(o.Header)}
	if o.Package != "" {
		opts = append(opts, gen.WithPackage(o.Package))
	}
	if o.Workers > 0 {
		opts = append(opts, gen.WithWorkers(o.Workers))
	}
	if o.Prune {
		opts = append(opts, gen.WithPrune())
	}
	return opts
}

func runGenerate(cmd *cobra.Command, opts *GenerateOptions, path string) error {
	log := opts.Logger(cmd.ErrOrStderr())
	run := func(ctx context.Context) error {
		m, err := gen.GenerateFile(ctx, path, log, opts.options(path)...)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "generated %d files (%d bytes)\n", m.FilesGenerated, m.TotalBytes)
		return nil
	}
	if err := run(cmd.Context()); err != nil {
		if !opts.Watch {
			return err
		}
		log.Error("generate failed", "path", path, "error", err)
	}
	if !opts.Watch {
		return nil
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	return gen.Watch(ctx, path, log, run)
}
