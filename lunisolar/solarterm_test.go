package lunisolar

import (
	"context"
	"testing"
	"time"

	"github.com/hsato/toki/astronomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMajorTerm(t *testing.T) {
	for deg := 0; deg < 360; deg += 15 {
		want := (deg/15)%2 == 0
		assert.Equal(t, want, IsMajorTerm(deg), "degree %d", deg)
	}
}

func TestSolarTermsBetweenSummerToAutumn2017(t *testing.T) {
	provider := astronomy.NewAnalyticProvider()
	start := time.Date(2017, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2017, 9, 30, 0, 0, 0, 0, time.UTC)

	terms, err := SolarTermsBetween(context.Background(), provider, start, end)
	require.NoError(t, err)

	var names []string
	for _, term := range terms {
		names = append(names, term.Name)
	}

	assert.Equal(t, []string{"芒種", "夏至", "小暑", "大暑", "立秋", "処暑", "白露", "秋分"}, names)
}

func TestSolarTermsBetweenIncludesSummerSolsticeAt90Degrees(t *testing.T) {
	provider := astronomy.NewAnalyticProvider()
	start := time.Date(2017, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2017, 7, 1, 0, 0, 0, 0, time.UTC)

	terms, err := SolarTermsBetween(context.Background(), provider, start, end)
	require.NoError(t, err)
	require.NotEmpty(t, terms)

	found := false
	for _, term := range terms {
		if term.Name == "夏至" {
			found = true
			assert.Equal(t, 90, term.Degree)
			assert.True(t, term.IsMajor())
			assert.WithinDuration(t, time.Date(2017, 6, 21, 0, 0, 0, 0, time.UTC), term.At, 36*time.Hour)
		}
	}
	assert.True(t, found, "expected 夏至 in range")
}
