package hqsagent

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func TestBitstringsToSamplesKnownRows(t *testing.T) {
	cases := []struct {
		bits string
		row  []int
	}{
		{"000", []int{0, 0, 0}},
		{"001", []int{0, 0, 1}},
		{"010", []int{0, 1, 0}},
		{"011", []int{0, 1, 1}},
		{"100", []int{1, 0, 0}},
		{"101", []int{1, 0, 1}},
		{"110", []int{1, 1, 0}},
		{"111", []int{1, 1, 1}},
	}
	for _, tc := range cases {
		t.Run(tc.bits, func(t *testing.T) {
			samples, err := BitstringsToSamples(repeat(tc.bits, 10), 3)
			require.NoError(t, err)
			require.Len(t, samples, 10)
			for _, row := range samples {
				require.Equal(t, tc.row, row)
			}
		})
	}
}

func TestBitstringsToSamplesRoundTrip(t *testing.T) {
	// Rows reinterpreted as base-2 integers must reproduce the originals.
	for wires := 1; wires <= 8; wires++ {
		max := 1 << wires
		bitstrings := make([]string, 0, max)
		for v := 0; v < max; v++ {
			s := strconv.FormatInt(int64(v), 2)
			for len(s) < wires {
				s = "0" + s
			}
			bitstrings = append(bitstrings, s)
		}
		samples, err := BitstringsToSamples(bitstrings, wires)
		require.NoError(t, err)
		require.Len(t, samples, max)
		for shot, row := range samples {
			require.Len(t, row, wires)
			value := 0
			for _, bit := range row {
				value = value<<1 | bit
			}
			require.Equal(t, shot, value, "wires=%d bits=%s", wires, bitstrings[shot])
		}
	}
}

func TestBitstringsToSamplesShortBitstrings(t *testing.T) {
	// The provider may strip leading zeros; values are unravelled by integer
	// value, not string width.
	samples, err := BitstringsToSamples([]string{"1"}, 3)
	require.NoError(t, err)
	require.Equal(t, [][]int{{0, 0, 1}}, samples)
}

func TestBitstringsToSamplesErrors(t *testing.T) {
	_, err := BitstringsToSamples([]string{"01"}, 0)
	require.Error(t, err)

	_, err = BitstringsToSamples([]string{"0a1"}, 3)
	require.Error(t, err)

	_, err = BitstringsToSamples([]string{"100"}, 2)
	require.Error(t, err, "value 4 does not fit 2 wires")
}

func TestBitstringsToSamplesEmpty(t *testing.T) {
	samples, err := BitstringsToSamples(nil, 3)
	require.NoError(t, err)
	require.Empty(t, samples)
}
