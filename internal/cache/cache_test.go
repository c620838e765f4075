package cache

import (
	"sync"
	"testing"
	"time"

	"schedule-backend/internal/normalizer"

	"github.com/stretchr/testify/require"
)

func TestCacheLifecycle(t *testing.T) {
	c := New()
	require.Equal(t, Empty, c.State())
	_, ok := c.Get()
	require.False(t, ok)

	at := time.Date(2024, 9, 1, 8, 30, 0, 0, time.UTC)
	records := []normalizer.Record{{Week: "1", Day: "Пн", Number: "1", Subject: "Физика", Group: "GR-1"}}
	c.Store(records, at)
	require.Equal(t, Populated, c.State())

	for range 2 {
		entry, ok := c.Get()
		require.True(t, ok)
		require.Equal(t, records, entry.Records)
		require.Equal(t, at, entry.LastUpdated)
	}

	// callers cannot mutate the cached slice
	entry, _ := c.Get()
	entry.Records[0].Subject = "changed"
	records[0].Group = "changed"
	entry, _ = c.Get()
	require.Equal(t, "Физика", entry.Records[0].Subject)
	require.Equal(t, "GR-1", entry.Records[0].Group)

	c.Invalidate()
	require.Equal(t, Empty, c.State())
	_, ok = c.Get()
	require.False(t, ok)

	// invalidating an empty cache is fine
	c.Invalidate()
	require.Equal(t, "empty", c.State().String())
}

func TestCacheStoreEmptySchedule(t *testing.T) {
	c := New()
	c.Store(nil, time.Unix(0, 0))
	entry, ok := c.Get()
	require.True(t, ok)
	require.NotNil(t, entry.Records)
	require.Empty(t, entry.Records)
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				switch (i + j) % 3 {
				case 0:
					c.Store([]normalizer.Record{{Subject: "Мат"}}, time.Now())
				case 1:
					entry, ok := c.Get()
					if ok && len(entry.Records) != 1 {
						t.Errorf("unexpected entry %v", entry)
					}
				default:
					c.Invalidate()
				}
			}
		}()
	}
	wg.Wait()
}
