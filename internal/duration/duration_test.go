package duration

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for text, want := range map[string]int{
		"7":            7,
		"01:05":        65,
		"00:01:05.123": 65,
		"02:00:00":     7200,
		"100:00:01":    360001,
		"03.999":       3,
	} {
		got, err := Parse(text)
		require.NoError(t, err, text)
		require.Equal(t, want, got, text)
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, text := range []string{"", "1:2:3:4", "aa:10", "00:-1", "00::01", ".5"} {
		_, err := Parse(text)
		require.Error(t, err, text)

		var fe *FormatError
		require.True(t, errors.As(err, &fe), text)
		require.Equal(t, text, fe.Text)
	}
}

func TestFormat(t *testing.T) {
	require.Equal(t, "00:00:00", Format(0))
	require.Equal(t, "00:01:05", Format(65))
	require.Equal(t, "27:46:40", Format(100000))
}

func TestRoundTrip(t *testing.T) {
	for _, s := range []int{0, 1, 59, 60, 61, 3599, 3600, 3661, 86399, 86400, 359999} {
		got, err := Parse(Format(s))
		require.NoError(t, err)
		require.Equal(t, s, got)
	}
}
