package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const scenarioFile = "2021-passages-aux-urgences-et-actes-sos-medecins-region.csv"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	blob, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(blob)
}

func nopLogger() *zap.Logger { return zap.NewNop() }
