package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kyunghoon/twasm/pkg/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const version = "test"

func TestBuildCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "mod.ts")
	require.NoError(t, os.WriteFile(src,
		[]byte("export const a: number = 1;\n"), 0644))

	os.Args = []string{
		"twasm", "build",
		"--format", "umd",
		src,
	}
	require.NoError(t, Run(client.New(), version))

	out, err := os.ReadFile(filepath.Join(dir, "mod.js"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "factory")
	assert.Contains(t, string(out), "exports.__esModule = true")
}

func TestBuildCommandOutDir(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()
	src := filepath.Join(dir, "mod.ts")
	require.NoError(t, os.WriteFile(src,
		[]byte("export const a = 1;\n"), 0644))

	os.Args = []string{
		"twasm", "build",
		"--format", "amd",
		"--out-dir", outDir,
		src,
	}
	require.NoError(t, Run(client.New(), version))

	out, err := os.ReadFile(filepath.Join(outDir, "mod.js"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "define(")
}

func TestBuildCommandErrors(t *testing.T) {
	os.Args = []string{"twasm", "build"}
	assert.Error(t, Run(client.New(), version))

	dir := t.TempDir()
	src := filepath.Join(dir, "bad.ts")
	require.NoError(t, os.WriteFile(src,
		[]byte("const x = ;\n"), 0644))
	os.Args = []string{"twasm", "build", src}
	assert.Error(t, Run(client.New(), version))

	os.Args = []string{"twasm", "build", "--format", "esm", src}
	assert.Error(t, Run(client.New(), version))
}

func TestRunCommandCall(t *testing.T) {
	stdout := os.Stdout
	os.Stdout = os.NewFile(0, os.DevNull)
	defer func() { os.Stdout = stdout }()

	dir := t.TempDir()
	src := filepath.Join(dir, "mod.ts")
	require.NoError(t, os.WriteFile(src,
		[]byte("export function greet(): string { return \"hi\"; }\n"), 0644))

	os.Args = []string{"twasm", "run", "--call", "greet", src}
	require.NoError(t, Run(client.New(), version))

	os.Args = []string{"twasm", "run", "--call", "missing", src}
	assert.Error(t, Run(client.New(), version))
}
