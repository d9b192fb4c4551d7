package sam

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientStatsCollector(t *testing.T) {
	c := newClientStatsCollector()

	c.recordLookup(true)
	c.recordLookup(false)
	c.recordGenerate()
	c.recordSession()
	c.recordStream()
	c.recordStream()
	c.recordError()

	assert.Equal(t, ClientStats{
		Lookups:    2,
		LookupHits: 1,
		Generates:  1,
		Sessions:   1,
		Streams:    2,
		Errors:     1,
	}, c.snapshot())
}

func TestClientStatsCollectorConcurrent(t *testing.T) {
	c := newClientStatsCollector()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				c.recordLookup(true)
			}
		}()
	}
	wg.Wait()

	stats := c.snapshot()
	assert.Equal(t, uint64(1000), stats.Lookups)
	assert.Equal(t, uint64(1000), stats.LookupHits)
}
