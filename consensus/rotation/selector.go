package rotation

import (
	"encoding/binary"
	"math/rand"

	mapset "github.com/deckarep/golang-set"
	"github.com/sirupsen/logrus"

	"github.com/annchain/schain-manager/groupindex"
	"github.com/annchain/schain-manager/staking"
	"github.com/annchain/schain-manager/types"
)

// Entropy feeds replacement selection.
type Entropy interface {
	Entropy() []byte
}

type StaticEntropy []byte

func (e StaticEntropy) Entropy() []byte {
	return e
}

// Selector draws nodes weighted by free capacity, without replacement.
type Selector struct {
	registry NodeRegistry
	staking  staking.Staking
	entropy  Entropy
}

func NewSelector(registry NodeRegistry, stake staking.Staking, entropy Entropy) *Selector {
	return &Selector{registry: registry, staking: stake, entropy: entropy}
}

// Seed derives the draw seed of one selection.
func (s *Selector) Seed(g types.GroupID, counter uint64) int64 {
	var c [8]byte
	binary.BigEndian.PutUint64(c[:], counter)
	h := types.Keccak256(s.entropy.Entropy(), g[:], c[:])
	return int64(binary.BigEndian.Uint64(h[:8]) >> 1)
}

// Pick selects and reserves up to k nodes for group g. Members of exclude
// are never picked. Candidates must be Active, hold part free space and
// have an eligible owner.
func (s *Selector) Pick(g types.GroupID, part uint8, exclude mapset.Set, counter uint64, k int) []types.NodeID {
	tree := groupindex.NewWeightTree(s.registry.Weights(part))
	for _, v := range exclude.ToSlice() {
		if id, ok := v.(types.NodeID); ok && int(id) < tree.Len() {
			tree.Update(int(id), 0)
		}
	}
	rng := rand.New(rand.NewSource(s.Seed(g, counter)))
	var picked []types.NodeID
	for len(picked) < k && tree.Total() > 0 {
		i := tree.Search(uint64(rng.Int63n(int64(tree.Total()))))
		tree.Update(i, 0)
		id := types.NodeID(i)
		owner, err := s.registry.Owner(id)
		if err != nil {
			continue
		}
		if !s.staking.IsEligible(owner) {
			logrus.WithField("node", id).WithField("owner", owner).Debug("candidate owner not eligible")
			continue
		}
		if err := s.registry.Reserve(id, part); err != nil {
			logrus.WithError(err).WithField("node", id).Debug("candidate reservation failed")
			continue
		}
		picked = append(picked, id)
	}
	return picked
}
