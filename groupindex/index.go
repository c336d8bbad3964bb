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

// Package groupindex keeps the slot arrays of every schain and the inverse
// node -> schains index. Positions are stable: a removal leaves a hole that
// the next insertion reuses, lowest first.
package groupindex

import (
	"fmt"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"

	"github.com/annchain/schain-manager/storage"
	"github.com/annchain/schain-manager/types"
)

const memberCacheSize = 512

type Index struct {
	mu     sync.RWMutex
	groups map[types.GroupID]*types.Group
	nodes  map[types.NodeID]*types.NodeGroups

	members *lru.Cache

	// true: put, false: delete
	dirtyGroups map[types.GroupID]bool
	dirtyNodes  map[types.NodeID]bool
}

func New() *Index {
	cache, err := lru.New(memberCacheSize)
	if err != nil {
		panic(err)
	}
	return &Index{
		groups:      make(map[types.GroupID]*types.Group),
		nodes:       make(map[types.NodeID]*types.NodeGroups),
		members:     cache,
		dirtyGroups: make(map[types.GroupID]bool),
		dirtyNodes:  make(map[types.NodeID]bool),
	}
}

func log() *logrus.Entry {
	return logrus.WithField("module", "groupindex")
}

// CreateGroup forms a group with its initial members at positions
// 0..len(members)-1.
func (x *Index) CreateGroup(name string, partOfNode uint8, members []types.NodeID, now time.Time) (*types.Group, error) {
	if len(members) == 0 {
		return nil, types.NewError(types.CodeInvalidState, "schain %q needs at least one member", name)
	}
	id := types.GroupIDFromName(name)
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.groups[id]; ok {
		return nil, types.NewError(types.CodeInvalidState, "schain %q already exists", name)
	}
	seen := make(map[types.NodeID]struct{}, len(members))
	for _, m := range members {
		if m.IsNone() {
			return nil, types.NewError(types.CodeInvalidState, "schain %q has an empty member", name)
		}
		if _, dup := seen[m]; dup {
			return nil, types.NewError(types.CodeInvalidState, "node %s listed twice in schain %q", m, name)
		}
		seen[m] = struct{}{}
	}
	g := &types.Group{
		ID:           id,
		Name:         name,
		Slots:        append([]types.NodeID(nil), members...),
		RequiredSize: uint32(len(members)),
		PartOfNode:   partOfNode,
		CreatedAt:    now,
	}
	x.groups[id] = g
	x.dirtyGroups[id] = true
	for _, m := range members {
		x.linkNode(m, id)
	}
	log().WithField("group", g).Info("schain created")
	return g.Clone(), nil
}

// DeleteGroup removes the group and unlinks all of its live members.
func (x *Index) DeleteGroup(id types.GroupID) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	g, ok := x.groups[id]
	if !ok {
		return notFound(id)
	}
	for _, m := range g.Slots {
		if !m.IsNone() {
			x.unlinkNode(m, id)
		}
	}
	x.dropGroup(id)
	return nil
}

func (x *Index) dropGroup(id types.GroupID) {
	delete(x.groups, id)
	x.members.Remove(id)
	x.dirtyGroups[id] = false
	log().WithField("group", id.TerminalString()).Info("schain removed")
}

// AddToGroup puts n into the lowest hole of the group, or appends.
func (x *Index) AddToGroup(id types.GroupID, n types.NodeID) (uint32, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	g, ok := x.groups[id]
	if !ok {
		return 0, notFound(id)
	}
	if positionOf(g, n) >= 0 {
		return 0, types.NewError(types.CodeInvalidState, "node %s already in schain %s", n, g.Name)
	}
	var pos uint32
	if len(g.Holes) > 0 {
		pos = g.Holes[0]
		g.Holes = g.Holes[1:]
		g.Slots[pos] = n
	} else {
		pos = uint32(len(g.Slots))
		g.Slots = append(g.Slots, n)
	}
	if uint32(g.LiveCount()) > g.RequiredSize {
		g.RequiredSize = uint32(g.LiveCount())
	}
	x.touchGroup(g)
	x.linkNode(n, id)
	return pos, nil
}

// RemoveFromGroup vacates a position. It refuses to open a second vacancy
// in a formed group. Removing the last live member tears the group down and
// reports torn=true.
func (x *Index) RemoveFromGroup(id types.GroupID, pos uint32) (removed types.NodeID, torn bool, err error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	g, ok := x.groups[id]
	if !ok {
		return types.NoNode, false, notFound(id)
	}
	if int(pos) >= len(g.Slots) || g.Slots[pos].IsNone() {
		return types.NoNode, false, types.NewError(types.CodeInvalidState, "position %d of schain %s is empty", pos, g.Name)
	}
	live := uint32(g.LiveCount())
	if live < g.RequiredSize {
		return types.NoNode, false, types.NewError(types.CodeInvalidState, "schain %s already has a vacant position", g.Name)
	}
	removed = g.Slots[pos]
	x.unlinkNode(removed, id)
	if live == 1 {
		x.dropGroup(id)
		return removed, true, nil
	}
	g.Slots[pos] = types.NoNode
	g.Holes = insertSorted(g.Holes, pos)
	x.touchGroup(g)
	return removed, false, nil
}

// ReplaceAt fills the vacant position pos with n.
func (x *Index) ReplaceAt(id types.GroupID, pos uint32, n types.NodeID) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	g, ok := x.groups[id]
	if !ok {
		return notFound(id)
	}
	if int(pos) >= len(g.Slots) || !g.Slots[pos].IsNone() {
		return types.NewError(types.CodeInvalidState, "position %d of schain %s is not vacant", pos, g.Name)
	}
	if positionOf(g, n) >= 0 {
		return types.NewError(types.CodeInvalidState, "node %s already in schain %s", n, g.Name)
	}
	g.Slots[pos] = n
	g.Holes = removeValue(g.Holes, pos)
	x.touchGroup(g)
	x.linkNode(n, id)
	return nil
}

// Shrink drops the required size by one. The vacant position stays as a
// tombstone.
func (x *Index) Shrink(id types.GroupID) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	g, ok := x.groups[id]
	if !ok {
		return notFound(id)
	}
	if g.RequiredSize == 0 {
		panic(fmt.Sprintf("schain %s shrinks below zero", g.Name))
	}
	g.RequiredSize--
	x.touchGroup(g)
	log().WithField("group", g).Warn("schain shrunk")
	return nil
}

func (x *Index) touchGroup(g *types.Group) {
	checkGroup(g)
	x.members.Remove(g.ID)
	x.dirtyGroups[g.ID] = true
}

func (x *Index) linkNode(n types.NodeID, id types.GroupID) {
	ng, ok := x.nodes[n]
	if !ok {
		ng = &types.NodeGroups{Node: n}
		x.nodes[n] = ng
	}
	if len(ng.Holes) > 0 {
		pos := ng.Holes[0]
		ng.Holes = ng.Holes[1:]
		ng.Groups[pos] = id
	} else {
		ng.Groups = append(ng.Groups, id)
	}
	x.dirtyNodes[n] = true
}

func (x *Index) unlinkNode(n types.NodeID, id types.GroupID) {
	ng, ok := x.nodes[n]
	if !ok {
		panic(fmt.Sprintf("inverse index of node %s missing for schain %s", n, id.TerminalString()))
	}
	for i, g := range ng.Groups {
		if g == id {
			ng.Groups[i] = types.EmptyGroup
			ng.Holes = insertSorted(ng.Holes, uint32(i))
			x.dirtyNodes[n] = true
			return
		}
	}
	panic(fmt.Sprintf("inverse index of node %s does not hold schain %s", n, id.TerminalString()))
}

// checkGroup panics when the hole bookkeeping is corrupted.
func checkGroup(g *types.Group) {
	holes := 0
	for _, n := range g.Slots {
		if n.IsNone() {
			holes++
		}
	}
	if holes != len(g.Holes) {
		panic(fmt.Sprintf("schain %s has %d empty slots but %d holes", g.Name, holes, len(g.Holes)))
	}
	live := uint32(len(g.Slots) - holes)
	if live != g.RequiredSize && live+1 != g.RequiredSize {
		panic(fmt.Sprintf("schain %s has %d live members, required %d", g.Name, live, g.RequiredSize))
	}
}

func (x *Index) Group(id types.GroupID) (*types.Group, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	g, ok := x.groups[id]
	if !ok {
		return nil, notFound(id)
	}
	return g.Clone(), nil
}

func (x *Index) Exists(id types.GroupID) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.groups[id]
	return ok
}

// Members returns live members in position order.
func (x *Index) Members(id types.GroupID) ([]types.NodeID, error) {
	if v, ok := x.members.Get(id); ok {
		return append([]types.NodeID(nil), v.([]types.NodeID)...), nil
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	g, ok := x.groups[id]
	if !ok {
		return nil, notFound(id)
	}
	members := g.Members()
	x.members.Add(id, members)
	return append([]types.NodeID(nil), members...), nil
}

// Slots returns the raw slot array, holes included.
func (x *Index) Slots(id types.GroupID) ([]types.NodeID, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	g, ok := x.groups[id]
	if !ok {
		return nil, notFound(id)
	}
	return append([]types.NodeID(nil), g.Slots...), nil
}

func (x *Index) PositionOf(id types.GroupID, n types.NodeID) (uint32, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	g, ok := x.groups[id]
	if !ok {
		return 0, false
	}
	p := positionOf(g, n)
	if p < 0 {
		return 0, false
	}
	return uint32(p), true
}

// GroupsOf returns the schains of n in inverse-index order.
func (x *Index) GroupsOf(n types.NodeID) []types.GroupID {
	x.mu.RLock()
	defer x.mu.RUnlock()
	ng, ok := x.nodes[n]
	if !ok {
		return nil
	}
	return ng.Live()
}

// Groups returns every group id in byte order.
func (x *Index) Groups() []types.GroupID {
	x.mu.RLock()
	defer x.mu.RUnlock()
	ids := make([]types.GroupID, 0, len(x.groups))
	for id := range x.groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Cmp(ids[j]) < 0 })
	return ids
}

func (x *Index) Flush(b *storage.Batch) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for id, put := range x.dirtyGroups {
		if g, ok := x.groups[id]; put && ok {
			b.PutGroup(g)
		} else {
			b.DeleteGroup(id)
		}
	}
	for n := range x.dirtyNodes {
		ng, ok := x.nodes[n]
		if !ok {
			b.DeleteNodeGroups(n)
			continue
		}
		b.PutNodeGroups(ng)
	}
	x.dirtyGroups = make(map[types.GroupID]bool)
	x.dirtyNodes = make(map[types.NodeID]bool)
}

func (x *Index) Export(snap *types.Snapshot) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	for _, id := range x.sortedGroups() {
		snap.Groups = append(snap.Groups, x.groups[id].Clone())
	}
	nodes := make([]types.NodeID, 0, len(x.nodes))
	for n := range x.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	for _, n := range nodes {
		snap.NodeGroups = append(snap.NodeGroups, x.nodes[n].Clone())
	}
}

func (x *Index) sortedGroups() []types.GroupID {
	ids := make([]types.GroupID, 0, len(x.groups))
	for id := range x.groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Cmp(ids[j]) < 0 })
	return ids
}

func (x *Index) Restore(snap *types.Snapshot) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.groups = make(map[types.GroupID]*types.Group, len(snap.Groups))
	x.nodes = make(map[types.NodeID]*types.NodeGroups, len(snap.NodeGroups))
	x.dirtyGroups = make(map[types.GroupID]bool)
	x.dirtyNodes = make(map[types.NodeID]bool)
	x.members.Purge()
	for _, g := range snap.Groups {
		if g == nil {
			continue
		}
		checkGroup(g)
		x.groups[g.ID] = g.Clone()
	}
	for _, ng := range snap.NodeGroups {
		if ng == nil {
			continue
		}
		x.nodes[ng.Node] = ng.Clone()
	}
}

func positionOf(g *types.Group, n types.NodeID) int {
	for i, m := range g.Slots {
		if m == n {
			return i
		}
	}
	return -1
}

func notFound(id types.GroupID) error {
	return types.NewError(types.CodeNotFound, "schain %s does not exist", id.TerminalString())
}

func insertSorted(s []uint32, v uint32) []uint32 {
	i := sort.Search(len(s), func(i int) bool { return s[i] >= v })
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func removeValue(s []uint32, v uint32) []uint32 {
	for i, h := range s {
		if h == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
