package lunisolar

import (
	"context"
	"testing"
	"time"

	"github.com/hsato/toki/astronomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoonsBetweenFebruary2026HasExactlyOne(t *testing.T) {
	provider := astronomy.NewAnalyticProvider()
	start := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 25, 0, 0, 0, 0, time.UTC)

	moons, err := NewMoonsBetween(context.Background(), provider, start, end)
	require.NoError(t, err)
	assert.Len(t, moons, 1)
}

func TestNewMoonsBetweenAreAscendingWithSynodicGap(t *testing.T) {
	provider := astronomy.NewAnalyticProvider()
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 7, 1, 0, 0, 0, 0, time.UTC)

	moons, err := NewMoonsBetween(context.Background(), provider, start, end)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(moons), 5)

	for i := 1; i < len(moons); i++ {
		assert.True(t, moons[i].At.After(moons[i-1].At))
		gap := moons[i].At.Sub(moons[i-1].At)
		assert.True(t, gap > 27*24*time.Hour && gap < 31*24*time.Hour, "gap %v out of range", gap)
	}
}

func TestFullMoonsBetweenFallsBetweenNewMoons(t *testing.T) {
	provider := astronomy.NewAnalyticProvider()
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)

	newMoons, err := NewMoonsBetween(context.Background(), provider, start, end)
	require.NoError(t, err)
	fullMoons, err := FullMoonsBetween(context.Background(), provider, start, end)
	require.NoError(t, err)

	require.NotEmpty(t, newMoons)
	require.NotEmpty(t, fullMoons)
	assert.True(t, fullMoons[0].At.After(newMoons[0].At))
}
