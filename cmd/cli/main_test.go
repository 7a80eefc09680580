package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_InvalidPipeline(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A stage block with a syntax error fails while loading.
	invalidHCL := `
		stage "print" "A" {
			arguments {
		// Missing closing brace here
	`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "main.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(invalidHCL), 0600), "failed to set up test file")

	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(context.Background(), out, []string{filePath})

	// --- Assert ---
	require.Error(t, runErr)
	require.Contains(t, runErr.Error(), "failed to load pipeline")
	require.Contains(t, runErr.Error(), "failed to parse HCL file")
}

func TestRun_Success(t *testing.T) {
	t.Parallel()

	pipeline := `
		stage "sleep" "work" {
		  arguments { duration = "10ms" }
		}
		stage "print" "done" {
		  inputs = ["work"]
		  arguments { message = "finished ${var.who}" }
		}
	`
	filePath := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(pipeline), 0600))

	out := &bytes.Buffer{}
	err := run(context.Background(), out, []string{"-log-level", "error", "-var", "who=everyone", filePath})

	require.NoError(t, err)
	require.Contains(t, out.String(), "done: finished everyone")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Providing an unknown flag will cause cli.Parse to return an error.
	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, args)

	// --- Assert ---
	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}
