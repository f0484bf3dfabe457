package resources

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLedger(t *testing.T) {
	l := NewLedger(4, 4096)
	require.NotNil(t, l)
	assert.Equal(t, 4, l.AvailableCPU())
	assert.Equal(t, 4096, l.AvailableRAM())
	assert.Equal(t, 4, l.TotalCPU())
	assert.Equal(t, 4096, l.TotalRAM())
	assert.False(t, l.Locked())
}

func TestAcquireRelease(t *testing.T) {
	t.Run("grant and restore", func(t *testing.T) {
		l := NewLedger(4, 1024)
		req := Request{CPU: 2, MemMB: 512}

		require.True(t, l.Acquire(req))
		assert.Equal(t, 2, l.AvailableCPU())
		assert.Equal(t, 512, l.AvailableRAM())

		l.Release(req)
		assert.Equal(t, 4, l.AvailableCPU())
		assert.Equal(t, 1024, l.AvailableRAM())
	})

	t.Run("rejects when memory short", func(t *testing.T) {
		l := NewLedger(4, 256)
		assert.False(t, l.Acquire(Request{CPU: 1, MemMB: 512}))
		// Rejection has no side effects.
		assert.Equal(t, 4, l.AvailableCPU())
		assert.Equal(t, 256, l.AvailableRAM())
	})

	t.Run("rejects when cores short", func(t *testing.T) {
		l := NewLedger(2, 1024)
		require.True(t, l.Acquire(Request{CPU: 2}))
		assert.False(t, l.Acquire(Request{CPU: 1}))
	})
}

func TestExclusiveAcquire(t *testing.T) {
	t.Run("grantable only on an idle machine", func(t *testing.T) {
		l := NewLedger(4, 1024)
		small := Request{CPU: 1}
		require.True(t, l.Acquire(small))

		assert.False(t, l.Acquire(Request{CPU: CPUAll}), "a busy core must block exclusive acquisition")

		l.Release(small)
		assert.True(t, l.Acquire(Request{CPU: CPUAll}))
		assert.True(t, l.Locked())
	})

	t.Run("lock blocks every admission", func(t *testing.T) {
		l := NewLedger(4, 1024)
		excl := Request{CPU: CPUAll, MemMB: 128}
		require.True(t, l.Acquire(excl))

		// All cores still read as available, but the lock rejects everything.
		assert.Equal(t, 4, l.AvailableCPU())
		assert.False(t, l.Acquire(Request{CPU: 1}))
		assert.False(t, l.Acquire(Request{CPU: CPUAll}))

		l.Release(excl)
		assert.False(t, l.Locked())
		assert.Equal(t, 1024, l.AvailableRAM())
		assert.True(t, l.Acquire(Request{CPU: 1}))
	})
}

// TestLedgerConservation drives the ledger with a random acquire/release
// workload and checks the budget balances after every operation.
func TestLedgerConservation(t *testing.T) {
	const totalCPU, totalRAM = 8, 2048
	rng := rand.New(rand.NewSource(1))
	l := NewLedger(totalCPU, totalRAM)

	var held []Request
	check := func() {
		t.Helper()
		cpuHeld, ramHeld := 0, 0
		for _, r := range held {
			if !r.Exclusive() {
				cpuHeld += r.CPU
			}
			ramHeld += r.MemMB
		}
		assert.Equal(t, totalCPU-cpuHeld, l.AvailableCPU())
		assert.Equal(t, totalRAM-ramHeld, l.AvailableRAM())
		assert.GreaterOrEqual(t, l.AvailableCPU(), 0)
		assert.LessOrEqual(t, l.AvailableCPU(), totalCPU)
		assert.GreaterOrEqual(t, l.AvailableRAM(), 0)
		assert.LessOrEqual(t, l.AvailableRAM(), totalRAM)
	}

	for i := 0; i < 1000; i++ {
		if len(held) > 0 && rng.Intn(2) == 0 {
			idx := rng.Intn(len(held))
			l.Release(held[idx])
			held = append(held[:idx], held[idx+1:]...)
		} else {
			req := Request{CPU: 1 + rng.Intn(4), MemMB: rng.Intn(512)}
			if rng.Intn(10) == 0 {
				req.CPU = CPUAll
			}
			if l.Acquire(req) {
				held = append(held, req)
			}
		}
		check()
	}
}
