package rotation

import (
	"sort"

	"github.com/annchain/schain-manager/storage"
	"github.com/annchain/schain-manager/types"
)

func (c *Coordinator) Flush(b *storage.Batch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for g, put := range c.dirtyRotations {
		if r, ok := c.rotations[g]; put && ok {
			b.PutRotation(r)
		} else {
			b.DeleteRotation(g)
		}
	}
	for n := range c.dirtyHistories {
		if h, ok := c.histories[n]; ok {
			b.PutHistory(h)
		}
	}
	c.dirtyRotations = make(map[types.GroupID]bool)
	c.dirtyHistories = make(map[types.NodeID]struct{})
}

func (c *Coordinator) Export(snap *types.Snapshot) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	groups := make([]types.GroupID, 0, len(c.rotations))
	for g := range c.rotations {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Cmp(groups[j]) < 0 })
	for _, g := range groups {
		snap.Rotations = append(snap.Rotations, c.rotations[g].Clone())
	}
	nodes := make([]types.NodeID, 0, len(c.histories))
	for n := range c.histories {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	for _, n := range nodes {
		snap.Histories = append(snap.Histories, c.histories[n].Clone())
	}
}

func (c *Coordinator) Restore(snap *types.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rotations = make(map[types.GroupID]*types.Rotation, len(snap.Rotations))
	c.histories = make(map[types.NodeID]*types.LeavingHistory, len(snap.Histories))
	c.dirtyRotations = make(map[types.GroupID]bool)
	c.dirtyHistories = make(map[types.NodeID]struct{})
	for _, r := range snap.Rotations {
		if r != nil {
			c.rotations[r.Group] = r.Clone()
		}
	}
	for _, h := range snap.Histories {
		if h != nil {
			c.histories[h.Node] = h.Clone()
		}
	}
}
