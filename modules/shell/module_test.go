package shell

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/taskgrid/internal/job"
	"github.com/vk/taskgrid/internal/resources"
)

func TestNew(t *testing.T) {
	t.Run("requires a command", func(t *testing.T) {
		_, err := New(job.NewTask("t", "shell", nil, map[string]any{}))
		assert.ErrorContains(t, err, "requires a 'command' argument")
	})

	t.Run("defaults and overrides for requirements", func(t *testing.T) {
		r, err := New(job.NewTask("t", "shell", nil, map[string]any{"command": "true"}))
		require.NoError(t, err)
		assert.Equal(t, resources.Request{CPU: 1}, r.Requirements())

		r, err = New(job.NewTask("t", "shell", nil, map[string]any{
			"command": "true",
			"cpu":     float64(2),
			"mem_mb":  float64(512),
		}))
		require.NoError(t, err)
		assert.Equal(t, resources.Request{CPU: 2, MemMB: 512}, r.Requirements())
	})
}

func TestRun(t *testing.T) {
	t.Run("captures output", func(t *testing.T) {
		r, err := New(job.NewTask("t", "shell", nil, map[string]any{"command": "echo hello"}))
		require.NoError(t, err)

		out, err := r.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "hello\n", out)
	})

	t.Run("reports failure with output", func(t *testing.T) {
		r, err := New(job.NewTask("t", "shell", nil, map[string]any{"command": "echo oops >&2; exit 3"}))
		require.NoError(t, err)

		_, err = r.Run(context.Background())
		require.Error(t, err)
		assert.ErrorContains(t, err, "command failed")
		assert.ErrorContains(t, err, "oops")
	})
}
