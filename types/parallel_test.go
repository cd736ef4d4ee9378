package types

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParallelOutput(t *testing.T) {
	out := NewParallelOutput()
	assert.False(t, out.IsRunning())

	out.Set("replica 0 : eps 1")
	assert.Equal(t, "replica 0 : eps 1", out.Get())

	out.SetRunning()
	assert.True(t, out.IsRunning())
}

// concurrent workers flagging themselves while a printer polls, as in a
// vectorized run
func TestParallelOutputConcurrent(t *testing.T) {
	out := NewParallelOutput()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out.SetRunning()
			out.TrySet("status")
			_ = out.IsRunning()
			_ = out.Get()
		}()
	}
	wg.Wait()
	assert.True(t, out.IsRunning())
}
