package workorders

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitEvenly(t *testing.T) {
	cases := []struct {
		name  string
		total int
		n     int
		want  []int
	}{
		{"single", 100, 1, []int{100}},
		{"even pair", 100, 2, []int{50, 50}},
		{"three way", 100, 3, []int{34, 33, 33}},
		{"four way", 100, 4, []int{25, 25, 25, 25}},
		{"six way", 100, 6, []int{17, 17, 17, 17, 16, 16}},
		{"remainder of thirty", 30, 4, []int{8, 8, 7, 7}},
		{"zero total", 0, 2, []int{0, 0}},
		{"no slots", 100, 0, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := splitEvenly(tc.total, tc.n)
			require.Equal(t, tc.want, got)

			sum := 0
			for _, part := range got {
				sum += part
			}
			if tc.n > 0 {
				require.Equal(t, tc.total, sum)
			}
		})
	}
}

func TestClampPercent(t *testing.T) {
	require.Equal(t, 1, clampPercent(-5))
	require.Equal(t, 1, clampPercent(0))
	require.Equal(t, 1, clampPercent(1))
	require.Equal(t, 42, clampPercent(42))
	require.Equal(t, 100, clampPercent(100))
	require.Equal(t, 100, clampPercent(250))
}
