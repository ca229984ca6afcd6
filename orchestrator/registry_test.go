package orchestrator

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSkipRegistryCaseInsensitive(t *testing.T) {
	reg := InitSkipRegistry()
	require.False(t, reg.IsSkipped("VOrbiETD04"))

	reg.Increment("VOrbiETD04")
	require.True(t, reg.IsSkipped("vorbietd04"))
	require.True(t, reg.IsSkipped("VORBIETD04"))
	require.False(t, reg.IsSkipped("LTQ_2"))
}

func TestSkipRegistryConcurrentIncrements(t *testing.T) {
	reg := InitSkipRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if n%2 == 0 {
				reg.Increment("VOrbiETD04")
			} else {
				reg.Increment("exact01")
			}
		}(i)
	}
	wg.Wait()

	counts := reg.Counts()
	require.Equal(t, int64(20), counts["vorbietd04"])
	require.Equal(t, int64(20), counts["exact01"])
}
