package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "ermgen", cmd.Use)

	for _, name := range []string{"generate", "validate", "ddl"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
}

func TestGenerateCommandFlags(t *testing.T) {
	cmd, _, err := NewRootCommand().Find([]string{"generate"})
	require.NoError(t, err)
	for name, short := range map[string]string{"target": "t", "package": "p", "watch": "w"} {
		f := cmd.Flags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, short, f.Shorthand)
	}
	assert.Equal(t, "false", cmd.Flags().Lookup("prune").DefValue)
}

func TestGenerateCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "generate", "testdata/pets.yaml", "--target", dir, "--package", "model", "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "generated 5 files")

	for _, name := range []string{"name.go", "age.go", "animal.go", "pet.go", "erm.go"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	src, err := os.ReadFile(filepath.Join(dir, "pet.go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "package model")
	assert.Contains(t, string(src), "erm.Option[Age]")

	_, err = execute(t, "generate", "testdata/missing.yaml", "--target", dir)
	assert.Error(t, err)
	_, err = execute(t, "generate")
	assert.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "validate", "testdata/pets.yaml")
	require.NoError(t, err)
	assert.Equal(t, "package pets: 3 components, 1 archetypes\n", out)

	out, err = execute(t, "validate", "-v", "testdata/pets.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "component Animal (table animal, 0 columns)")
	assert.Contains(t, out, "archetype Pet (name, animal, age)")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("package: p\ncomponents: [{name: A}, {name: A}]\n"), 0o600))
	_, err = execute(t, "validate", bad)
	assert.ErrorContains(t, err, `duplicate name "A"`)
}

func TestDDLCommand(t *testing.T) {
	out, err := execute(t, "ddl", "--dialect", "postgres", "testdata/pets.yaml")
	require.NoError(t, err)
	assert.Equal(t, "create table if not exists name(entity bigint primary key, name character varying not null);\n"+
		"create table if not exists age(entity bigint primary key, age bigint not null);\n"+
		"create table if not exists animal(entity bigint primary key);\n", out)

	out, err = execute(t, "ddl", "--dialect", "mysql", "--entity", "uuid", "testdata/pets.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "create table if not exists animal(entity char(36) primary key);")

	_, err = execute(t, "ddl", "--dialect", "oracle", "testdata/pets.yaml")
	assert.ErrorContains(t, err, "unsupported dialect")
	_, err = execute(t, "ddl", "--entity", "decimal", "testdata/pets.yaml")
	assert.Error(t, err)
}
