package groupindex

// WeightTree is a Fenwick tree over non-negative weights. Index i holds
// the weight of node id i.
type WeightTree struct {
	weights []uint64
	tree    []uint64
}

// NewWeightTree builds the tree in O(n).
func NewWeightTree(weights []uint64) *WeightTree {
	w := &WeightTree{
		weights: append([]uint64(nil), weights...),
		tree:    make([]uint64, len(weights)+1),
	}
	for i, v := range weights {
		j := i + 1
		w.tree[j] += v
		if parent := j + (j & -j); parent < len(w.tree) {
			w.tree[parent] += w.tree[j]
		}
	}
	return w
}

func (w *WeightTree) Len() int {
	return len(w.weights)
}

func (w *WeightTree) Weight(i int) uint64 {
	return w.weights[i]
}

// Update sets the weight of index i.
func (w *WeightTree) Update(i int, weight uint64) {
	old := w.weights[i]
	if old == weight {
		return
	}
	w.weights[i] = weight
	for j := i + 1; j < len(w.tree); j += j & -j {
		w.tree[j] = w.tree[j] - old + weight
	}
}

// PrefixSum returns the sum of weights [0, i).
func (w *WeightTree) PrefixSum(i int) uint64 {
	var s uint64
	for j := i; j > 0; j -= j & -j {
		s += w.tree[j]
	}
	return s
}

func (w *WeightTree) Total() uint64 {
	return w.PrefixSum(len(w.weights))
}

// Search returns the smallest index i with PrefixSum(i+1) > target, or -1
// when target >= Total().
func (w *WeightTree) Search(target uint64) int {
	if target >= w.Total() {
		return -1
	}
	pos := 0
	step := 1
	for step*2 < len(w.tree) {
		step *= 2
	}
	for ; step > 0; step /= 2 {
		next := pos + step
		if next < len(w.tree) && w.tree[next] <= target {
			pos = next
			target -= w.tree[next]
		}
	}
	return pos
}
