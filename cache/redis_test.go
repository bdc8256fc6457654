package cache

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/hsato/toki/record"
	"github.com/stretchr/testify/assert"
)

func TestGenerateCacheKeyIsStableForSameInputs(t *testing.T) {
	r := &RedisCache{}
	a := r.GenerateCacheKey("2020-01-25", "de440s.bsp", 35.681236, 139.767125)
	b := r.GenerateCacheKey("2020-01-25", "de440s.bsp", 35.681236, 139.767125)
	assert.Equal(t, a, b)
}

func TestGenerateCacheKeyDiffersByLocation(t *testing.T) {
	r := &RedisCache{}
	tokyo := r.GenerateCacheKey("2020-01-25", "de440s.bsp", 35.681236, 139.767125)
	other := r.GenerateCacheKey("2020-01-25", "de440s.bsp", 51.5074, -0.1278)
	assert.NotEqual(t, tokyo, other)
}

func TestEntryRoundTripsThroughJSON(t *testing.T) {
	entry := &Entry{
		Day: &record.DayRecord{
			Date: "2020-01-25",
		},
		CachedAt: time.Now().Truncate(time.Second),
	}

	data, err := json.Marshal(entry)
	assert.NoError(t, err)

	var decoded Entry
	assert.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, entry.Day.Date, decoded.Day.Date)
	assert.True(t, entry.CachedAt.Equal(decoded.CachedAt))
}
