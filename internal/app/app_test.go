package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/taskgrid/internal/hcl"
)

func writePipeline(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runApp(t *testing.T, cfg Config) (*bytes.Buffer, error) {
	t.Helper()
	out := &bytes.Buffer{}
	validated, err := NewConfig(cfg)
	require.NoError(t, err)
	a := NewApp(out, validated, hcl.NewLoader())
	return out, a.Run(context.Background(), validated)
}

func TestRunPipeline(t *testing.T) {
	path := writePipeline(t, `
engine {
  mode    = "concurrent"
  cpus    = 2
  ram_mb  = 256
  poll_ms = 2
}

job "demo" {
  task "first" {
    kind      = "sleep"
    arguments = { duration_ms = 1 }
  }
  task "second" {
    kind       = "sleep"
    arguments  = { duration_ms = 1 }
    depends_on = ["first"]
  }
}
`)

	out, err := runApp(t, Config{PipelinePath: path, LogLevel: "error"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "job demo: FINISHED")
	assert.Contains(t, out.String(), "task first [sleep]: FINISHED")
	assert.Contains(t, out.String(), "task second [sleep]: FINISHED")
}

func TestRunPipelineWithoutEngineBlock(t *testing.T) {
	// No engine block: the concurrent engine falls back to host defaults,
	// including a non-zero memory budget, so a memory-requesting task is
	// still admitted.
	path := writePipeline(t, `
job "defaults" {
  task "hungry" {
    kind      = "sleep"
    arguments = { duration_ms = 1 }
    resources { mem_mb = 128 }
  }
}
`)

	out, err := runApp(t, Config{PipelinePath: path, PollMS: 2, LogLevel: "error"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "job defaults: FINISHED")
	assert.Contains(t, out.String(), "task hungry [sleep]: FINISHED")
}

func TestBudgetOverridesPipeline(t *testing.T) {
	// The pipeline budget is too small for the task; the CLI-style override
	// raises it, so the run completes instead of the task waiting forever.
	path := writePipeline(t, `
engine {
  mode    = "concurrent"
  ram_mb  = 16
  poll_ms = 2
}

job "sized" {
  task "big" {
    kind      = "sleep"
    arguments = { duration_ms = 1 }
    resources { mem_mb = 64 }
  }
}
`)

	out, err := runApp(t, Config{PipelinePath: path, RAMMB: 256, LogLevel: "error"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "job sized: FINISHED")
}

func TestRunPipelineSequentialFailure(t *testing.T) {
	path := writePipeline(t, `
engine { mode = "sequential" }

job "broken" {
  task "boom" {
    kind      = "shell"
    arguments = { command = "exit 3" }
  }
  task "never" {
    kind       = "sleep"
    depends_on = ["boom"]
  }
}
`)

	out, err := runApp(t, Config{PipelinePath: path, LogLevel: "error"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job broken failed")
	assert.Contains(t, out.String(), "job broken: FAILED")
	assert.Contains(t, out.String(), "task boom [shell]: FAILED")
	assert.Contains(t, out.String(), "task never [sleep]: WAITING")
}

func TestModeOverride(t *testing.T) {
	// The pipeline says concurrent; the CLI-style override forces sequential,
	// which aborts the second independent task after the first fails.
	path := writePipeline(t, `
engine {
  mode   = "concurrent"
  cpus   = 2
  ram_mb = 64
}

job "mixed" {
  task "bad" {
    kind      = "shell"
    arguments = { command = "exit 1" }
  }
  task "good" {
    kind = "sleep"
  }
}
`)

	out, err := runApp(t, Config{PipelinePath: path, Mode: "sequential", LogLevel: "error"})
	require.Error(t, err)
	assert.Contains(t, out.String(), "task good [sleep]: READY")
}

func TestRunEmptyPipeline(t *testing.T) {
	path := writePipeline(t, `engine { mode = "sequential" }`)
	_, err := runApp(t, Config{PipelinePath: path, LogLevel: "error"})
	assert.NoError(t, err)
}

func TestNewConfigValidation(t *testing.T) {
	_, err := NewConfig(Config{})
	assert.ErrorContains(t, err, "PipelinePath is a required")

	_, err = NewConfig(Config{PipelinePath: "p.hcl", RAMMB: -1})
	assert.ErrorContains(t, err, "cannot be negative")
}
