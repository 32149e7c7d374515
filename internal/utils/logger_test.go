package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLogger(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	logger, err := NewRunLoggerIn(dir, "Generate Docs", &out)
	require.NoError(t, err)

	logger.LogInfo("rendered %d sitemaps", 3)
	logger.LogError("failed: %v", "boom")
	require.NoError(t, logger.Close())

	assert.Equal(t, filepath.Join(dir, "generate_docs"), filepath.Dir(logger.Path()))

	data, err := os.ReadFile(logger.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INFO] rendered 3 sitemaps")
	assert.Contains(t, string(data), "[ERROR] failed: boom")
	assert.Equal(t, string(data), out.String())
}
