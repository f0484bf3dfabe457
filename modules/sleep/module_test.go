package sleep

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/taskgrid/internal/job"
	"github.com/vk/taskgrid/internal/resources"
)

func TestRun(t *testing.T) {
	r, err := New(job.NewTask("t", "sleep", nil, map[string]any{"duration_ms": float64(5)}))
	require.NoError(t, err)
	assert.Equal(t, resources.Request{CPU: 1}, r.Requirements())

	out, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "5ms", out)
}

func TestRunHonorsCancellation(t *testing.T) {
	r, err := New(job.NewTask("t", "sleep", nil, map[string]any{"duration_ms": float64(10000)}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err = r.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
