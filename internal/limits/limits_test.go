package limits

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		min, max  int
		want      int
		clamped   bool
	}{
		{"within range", 10, 1, 100, 10, false},
		{"at lower bound", 1, 1, 100, 1, false},
		{"at upper bound", 100, 1, 100, 100, false},
		{"below range", -5, 1, 100, 1, true},
		{"zero", 0, 1, 100, 1, true},
		{"above range", 200, 1, 100, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, clamped := Clamp(tt.requested, tt.min, tt.max)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.clamped, clamped)
		})
	}
}

func TestCaps(t *testing.T) {
	t.Run("cpu iterations capped", func(t *testing.T) {
		n, clamped := CPUIterations(MaxCPUIterations + 1)
		assert.Equal(t, 50_000_000, n)
		assert.True(t, clamped)
	})

	t.Run("memory floor is one megabyte", func(t *testing.T) {
		for _, requested := range []int{0, -1, -1024} {
			n, clamped := MemoryMB(requested)
			assert.Equal(t, 1, n)
			assert.True(t, clamped)
		}
	})

	t.Run("memory capped", func(t *testing.T) {
		n, _ := MemoryMB(4096)
		assert.Equal(t, 256, n)
	})

	t.Run("storage ops capped", func(t *testing.T) {
		n, _ := StorageOps(1_000_000)
		assert.Equal(t, 10_000, n)
	})

	t.Run("stress seconds bounded", func(t *testing.T) {
		n, clamped := StressSeconds(200)
		assert.Equal(t, 60, n)
		assert.True(t, clamped)

		n, clamped = StressSeconds(0)
		assert.Equal(t, 1, n)
		assert.True(t, clamped)
	})
}

func TestStressWorkers(t *testing.T) {
	assert.Equal(t, 1, StressWorkers(0))
	assert.Equal(t, 2, StressWorkers(1))
	assert.Equal(t, 8, StressWorkers(4))
	assert.Equal(t, 12, StressWorkers(6))
	assert.Equal(t, 12, StressWorkers(64))
}
