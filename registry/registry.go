// Copyright © 2019 Annchain Authors <EMAIL ADDRESS>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package registry owns node identity, status and free capacity.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/annchain/bloom"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/annchain/schain-manager/storage"
	"github.com/annchain/schain-manager/types"
)

// allowed status transitions. Left is terminal.
var transitions = map[types.NodeStatus][]types.NodeStatus{
	types.NodeActive:        {types.NodeLeaving, types.NodeInMaintenance},
	types.NodeInMaintenance: {types.NodeActive, types.NodeLeaving},
	types.NodeLeaving:       {types.NodeLeaving, types.NodeLeft},
}

const (
	nameFilterBits   = 1 << 16
	nameFilterHashes = 4
)

type Registry struct {
	clock clockwork.Clock

	mu     sync.RWMutex
	nodes  map[types.NodeID]*types.Node
	names  *bloom.BloomFilter
	nextID types.NodeID
	dirty  map[types.NodeID]struct{}
}

func New(clock clockwork.Clock) *Registry {
	return &Registry{
		clock: clock,
		nodes: make(map[types.NodeID]*types.Node),
		names: bloom.New(nameFilterBits, nameFilterHashes),
		dirty: make(map[types.NodeID]struct{}),
	}
}

func log() *logrus.Entry {
	return logrus.WithField("module", "registry")
}

// Register creates an Active node with the whole space free. Ids are
// assigned densely and never reused.
func (r *Registry) Register(name string, owner uint64, space uint8) (*types.Node, error) {
	if space == 0 {
		return nil, types.NewError(types.CodeInvalidState, "node %q registered without space", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.names.Test([]byte(name)) {
		for _, n := range r.nodes {
			if n.Name == name {
				return nil, types.NewError(types.CodeInvalidState, "node name %q already taken by %d", name, n.ID)
			}
		}
	}
	n := &types.Node{
		ID:           r.nextID,
		Name:         name,
		Owner:        owner,
		Status:       types.NodeActive,
		TotalSpace:   space,
		FreeSpace:    space,
		RegisteredAt: r.clock.Now(),
	}
	r.nodes[n.ID] = n
	r.names.Add([]byte(name))
	r.nextID++
	r.dirty[n.ID] = struct{}{}
	log().WithField("node", n).Info("node registered")
	return n.Clone(), nil
}

func (r *Registry) get(n types.NodeID) (*types.Node, error) {
	node, ok := r.nodes[n]
	if !ok {
		return nil, types.NewError(types.CodeNotFound, "node %s does not exist", n)
	}
	return node, nil
}

func (r *Registry) Get(n types.NodeID) (*types.Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	node, err := r.get(n)
	if err != nil {
		return nil, err
	}
	return node.Clone(), nil
}

func (r *Registry) Status(n types.NodeID) (types.NodeStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	node, err := r.get(n)
	if err != nil {
		return 0, err
	}
	return node.Status, nil
}

func (r *Registry) Owner(n types.NodeID) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	node, err := r.get(n)
	if err != nil {
		return 0, err
	}
	return node.Owner, nil
}

func (r *Registry) IsActive(n types.NodeID) bool {
	s, err := r.Status(n)
	return err == nil && s == types.NodeActive
}

// SetStatus moves a node along the lifecycle. Re-entering Leaving is
// allowed so a partially failed exit can be retried.
func (r *Registry) SetStatus(n types.NodeID, s types.NodeStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	node, err := r.get(n)
	if err != nil {
		return err
	}
	for _, next := range transitions[node.Status] {
		if next == s {
			if node.Status != s {
				log().WithField("node", n).WithField("from", node.Status).WithField("to", s).Info("node status changed")
			}
			node.Status = s
			r.dirty[n] = struct{}{}
			return nil
		}
	}
	return types.NewError(types.CodeInvalidState, "node %s cannot move from %s to %s", n, node.Status, s)
}

func (r *Registry) SetMaintenance(n types.NodeID, on bool) error {
	if on {
		return r.SetStatus(n, types.NodeInMaintenance)
	}
	return r.SetStatus(n, types.NodeActive)
}

func (r *Registry) HasFreeCapacity(n types.NodeID, c uint8) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	node, err := r.get(n)
	return err == nil && node.FreeSpace >= c
}

// Reserve takes c units of free space from an Active node, or fails
// without side effects.
func (r *Registry) Reserve(n types.NodeID, c uint8) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	node, err := r.get(n)
	if err != nil {
		return err
	}
	if node.Status != types.NodeActive {
		return types.NewError(types.CodeNotEligible, "node %s is %s", n, node.Status)
	}
	if node.FreeSpace < c {
		return types.NewError(types.CodeNotEligible, "node %s has %d free, %d required", n, node.FreeSpace, c)
	}
	node.FreeSpace -= c
	r.dirty[n] = struct{}{}
	return nil
}

// Release gives c units back, capped at the node's total space.
func (r *Registry) Release(n types.NodeID, c uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	node, err := r.get(n)
	if err != nil {
		log().WithError(err).Warn("release on unknown node")
		return
	}
	free := int(node.FreeSpace) + int(c)
	if free > int(node.TotalSpace) {
		free = int(node.TotalSpace)
	}
	node.FreeSpace = uint8(free)
	r.dirty[n] = struct{}{}
}

func (r *Registry) Touch(n types.NodeID, t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if node, ok := r.nodes[n]; ok {
		node.LastRotation = t
		r.dirty[n] = struct{}{}
	}
}

// Weights returns the selection weight of every node id: its free space
// when it is Active and can host minFree, zero otherwise.
func (r *Registry) Weights(minFree uint8) []uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w := make([]uint64, r.nextID)
	for id, n := range r.nodes {
		if n.Status == types.NodeActive && n.FreeSpace >= minFree && n.FreeSpace > 0 {
			w[id] = uint64(n.FreeSpace)
		}
	}
	return w
}

func (r *Registry) Nodes() []*types.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	nodes := make([]*types.Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		nodes = append(nodes, n.Clone())
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// Flush moves dirty nodes into b.
func (r *Registry) Flush(b *storage.Batch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.dirty {
		if n, ok := r.nodes[id]; ok {
			b.PutNode(n)
		}
	}
	r.dirty = make(map[types.NodeID]struct{})
}

func (r *Registry) Export(snap *types.Snapshot) {
	snap.Nodes = r.Nodes()
}

func (r *Registry) Restore(snap *types.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes = make(map[types.NodeID]*types.Node, len(snap.Nodes))
	r.dirty = make(map[types.NodeID]struct{})
	r.names = bloom.New(nameFilterBits, nameFilterHashes)
	r.nextID = 0
	for _, n := range snap.Nodes {
		if n == nil {
			continue
		}
		r.nodes[n.ID] = n.Clone()
		r.names.Add([]byte(n.Name))
		if n.ID >= r.nextID {
			r.nextID = n.ID + 1
		}
	}
}
