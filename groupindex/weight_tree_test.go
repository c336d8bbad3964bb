package groupindex

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWeightTree_PrefixAndSearch(t *testing.T) {
	w := NewWeightTree([]uint64{3, 0, 5, 2})
	require.Equal(t, uint64(10), w.Total())
	require.Equal(t, uint64(3), w.PrefixSum(1))
	require.Equal(t, uint64(8), w.PrefixSum(3))

	require.Equal(t, 0, w.Search(0))
	require.Equal(t, 0, w.Search(2))
	require.Equal(t, 2, w.Search(3))
	require.Equal(t, 2, w.Search(7))
	require.Equal(t, 3, w.Search(8))
	require.Equal(t, 3, w.Search(9))
	require.Equal(t, -1, w.Search(10))

	w.Update(2, 0)
	require.Equal(t, uint64(5), w.Total())
	require.Equal(t, 3, w.Search(3))
	w.Update(1, 4)
	require.Equal(t, 1, w.Search(3))
	require.Equal(t, uint64(4), w.Weight(1))
}

func TestWeightTree_MatchesLinearScan(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	weights := make([]uint64, 37)
	for i := range weights {
		weights[i] = uint64(r.Intn(5))
	}
	w := NewWeightTree(weights)
	for round := 0; round < 200; round++ {
		i := r.Intn(len(weights))
		weights[i] = uint64(r.Intn(5))
		w.Update(i, weights[i])

		var total uint64
		for _, v := range weights {
			total += v
		}
		require.Equal(t, total, w.Total())
		if total == 0 {
			continue
		}
		target := uint64(r.Int63n(int64(total)))
		var acc uint64
		want := -1
		for j, v := range weights {
			acc += v
			if acc > target {
				want = j
				break
			}
		}
		require.Equal(t, want, w.Search(target))
	}
}
