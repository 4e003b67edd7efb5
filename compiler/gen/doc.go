// Package gen generates erm component code from schema files.
//
// A schema file (see package load) lists components and archetypes. For every
// component gen writes a struct with its Descriptor, Encode and Decode methods
// and one typed sql.Field per column. For every archetype it writes a struct
// whose Components method returns its members in declaration order. A
// package-level file exposes Components and a Register helper that creates
// all tables on a backend.
//
// # Architecture
//
//	schema.yaml
//	     ↓
//	load.Schema (validated, default names filled in)
//	     ↓
//	Graph (Go identifiers, column types)
//	     ↓
//	Generator (jennifer files, rendered in parallel)
//	     ↓
//	<target>/*.go
//
// # Usage
//
//	g, err := gen.NewGraph(s, gen.WithTarget("./model"))
//	if err != nil {
//		return err
//	}
//	return gen.NewGenerator(g).Generate(ctx)
//
// The ermgen command wraps the same pipeline and can regenerate on change
// with Watch.
//
// # Error Handling
//
//   - ConfigError: invalid generator options
//   - GenerationError: a file failed to render, format or write
package gen
