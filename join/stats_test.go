package join

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatsAdd(t *testing.T) {
	s := Stats{SpotsRead: 1, ReadsRead: 2, ReadsWritten: 2}
	s.Add(Stats{SpotsRead: 3, ReadsRead: 4, ReadsTooShort: 1})
	assert.Equal(t, Stats{SpotsRead: 4, ReadsRead: 6, ReadsWritten: 2, ReadsTooShort: 1}, s)
}

func TestStatsAggregatorMergeIsConcurrencySafe(t *testing.T) {
	agg := &StatsAggregator{}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			agg.Merge(Stats{SpotsRead: 1, ReadsRead: 2})
		}()
	}
	wg.Wait()
	total := agg.Total()
	assert.EqualValues(t, 50, total.SpotsRead)
	assert.EqualValues(t, 100, total.ReadsRead)
}
