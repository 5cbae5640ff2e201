package series

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"xctrace-mcp/internal/duration"
	"xctrace-mcp/internal/samples"
)

func TestNormalize_LastWins(t *testing.T) {
	got := Normalize([]Point{{10, 1}, {10, 2}, {20, 3}})
	require.Equal(t, []DisplayPoint{{"00:00:10", 2}, {"00:00:20", 3}}, got)
}

func TestNormalize_StableOrderWithinSecond(t *testing.T) {
	got := Normalize([]Point{{20, 9}, {5, 1}, {20, 7}, {5, 2}})
	require.Equal(t, []DisplayPoint{{"00:00:05", 2}, {"00:00:20", 7}}, got)
}

func TestNormalize_StrictOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for round := 0; round < 50; round++ {
		points := make([]Point, rng.Intn(200))
		for i := range points {
			points[i] = Point{Seconds: rng.Intn(120), Value: rng.Float64()}
		}

		collapsed := Collapse(points)
		for i := 1; i < len(collapsed); i++ {
			require.Less(t, collapsed[i-1].Seconds, collapsed[i].Seconds)
		}

		labels := map[string]bool{}
		for _, dp := range Normalize(points) {
			require.False(t, labels[dp.Time], dp.Time)
			labels[dp.Time] = true
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	once := Normalize([]Point{{3661, 1}, {0, 2}, {3661, 4}, {59, 5}})

	back, err := Points(once)
	require.NoError(t, err)
	require.Equal(t, once, Normalize(back))
}

func TestNormalize_Empty(t *testing.T) {
	require.Empty(t, Normalize(nil))
}

func TestFromRaw(t *testing.T) {
	pts, err := FromRaw(samples.CPU, []samples.Raw{
		{Time: "00:01.999", Value: 12.3456},
		{Time: "01:00:00", Value: 1},
	})
	require.NoError(t, err)
	require.Equal(t, []Point{{1, 12.35}, {3600, 1}}, pts)

	pts, err = FromRaw(samples.FPS, []samples.Raw{{Time: "00:02", Value: 59.876}})
	require.NoError(t, err)
	require.Equal(t, 59.876, pts[0].Value)

	_, err = FromRaw(samples.FPS, []samples.Raw{{Time: "1:2:3:4", Value: 1}})
	var fe *duration.FormatError
	require.True(t, errors.As(err, &fe))
}
