package main

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/xtractpdf/internal/config"
)

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuild, oldCommit := version, buildTime, gitCommit
	t.Cleanup(func() { version, buildTime, gitCommit = oldVersion, oldBuild, oldCommit })

	version, buildTime, gitCommit = "1.2.3", "2024-06-01_10:30:00", "abc123"

	var buf bytes.Buffer
	printVersion(&buf)

	out := buf.String()
	assert.Contains(t, out, "Version: 1.2.3")
	assert.Contains(t, out, "Build Time: 2024-06-01_10:30:00")
	assert.Contains(t, out, "Git Commit: abc123")
	assert.Contains(t, out, runtime.Version())
}

func TestNewRunner(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RowsAfter = 2
	require.NotNil(t, newRunner(cfg))
}
