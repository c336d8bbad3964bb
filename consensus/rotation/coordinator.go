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

// Package rotation moves nodes out of their schains. A leaving node is
// replaced at the same slot position; after a rotation the schain is frozen
// for other leaving nodes until the freeze window ends.
package rotation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set"
	"github.com/hashicorp/go-multierror"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/annchain/schain-manager/eventbus"
	"github.com/annchain/schain-manager/groupindex"
	"github.com/annchain/schain-manager/types"
)

const DefaultFreezeDelay = 12 * time.Hour

// ErrNotLeaving is returned by CompleteExit while the node is not Leaving or
// still holds seats.
var ErrNotLeaving = &types.Error{Code: types.CodeInvalidState, Msg: "NotLeaving"}

type NodeRegistry interface {
	Status(n types.NodeID) (types.NodeStatus, error)
	SetStatus(n types.NodeID, s types.NodeStatus) error
	Owner(n types.NodeID) (uint64, error)
	Reserve(n types.NodeID, c uint8) error
	Release(n types.NodeID, c uint8)
	Touch(n types.NodeID, t time.Time)
	Weights(minFree uint8) []uint64
}

// Channels reopens or drops the DKG channel of a schain.
type Channels interface {
	Open(g types.GroupID, members []types.NodeID) *types.Session
	Remove(g types.GroupID)
}

type GroupLocker interface {
	Lock(g types.GroupID)
	Unlock(g types.GroupID)
}

type Config struct {
	FreezeDelay time.Duration
}

// GroupResult is the outcome of removing one node from one schain.
type GroupResult struct {
	Group       types.GroupID `json:"group"`
	Position    uint32        `json:"position"`
	Replacement types.NodeID  `json:"replacement"`
	Counter     uint64        `json:"counter"`
	Shrunk      bool          `json:"shrunk"`
	Removed     bool          `json:"removed"`
	Err         string        `json:"err,omitempty"`
}

type ExitReport struct {
	Node    types.NodeID  `json:"node"`
	Results []GroupResult `json:"results"`
	Left    bool          `json:"left"`
}

type Coordinator struct {
	cfg      Config
	clock    clockwork.Clock
	registry NodeRegistry
	index    *groupindex.Index
	channels Channels
	locker   GroupLocker
	selector *Selector
	router   eventbus.Router

	mu             sync.RWMutex
	rotations      map[types.GroupID]*types.Rotation
	histories      map[types.NodeID]*types.LeavingHistory
	dirtyRotations map[types.GroupID]bool
	dirtyHistories map[types.NodeID]struct{}
}

func NewCoordinator(cfg Config, clock clockwork.Clock, registry NodeRegistry, index *groupindex.Index,
	channels Channels, locker GroupLocker, selector *Selector, router eventbus.Router) *Coordinator {
	if cfg.FreezeDelay <= 0 {
		cfg.FreezeDelay = DefaultFreezeDelay
	}
	return &Coordinator{
		cfg:            cfg,
		clock:          clock,
		registry:       registry,
		index:          index,
		channels:       channels,
		locker:         locker,
		selector:       selector,
		router:         router,
		rotations:      make(map[types.GroupID]*types.Rotation),
		histories:      make(map[types.NodeID]*types.LeavingHistory),
		dirtyRotations: make(map[types.GroupID]bool),
		dirtyHistories: make(map[types.NodeID]struct{}),
	}
}

func log() *logrus.Entry {
	return logrus.WithField("module", "rotation")
}

func (c *Coordinator) route(ev eventbus.Event) {
	if c.router != nil {
		c.router.Route(ev)
	}
}

// InitiateExit marks n Leaving and rotates it out of every schain it holds,
// in inverse-index order, one schain lock at a time. A failure in one
// schain does not stop the others; all failures are returned together.
// A node left without seats becomes Left.
func (c *Coordinator) InitiateExit(ctx context.Context, n types.NodeID) (*ExitReport, error) {
	status, err := c.registry.Status(n)
	if err != nil {
		return nil, err
	}
	switch status {
	case types.NodeActive, types.NodeInMaintenance, types.NodeLeaving:
	default:
		return nil, types.NewError(types.CodeInvalidState, "node %s is %s and cannot exit", n, status)
	}
	if err := c.registry.SetStatus(n, types.NodeLeaving); err != nil {
		return nil, err
	}

	report := &ExitReport{Node: n}
	var merr *multierror.Error
	for _, g := range c.index.GroupsOf(n) {
		if err := ctx.Err(); err != nil {
			merr = multierror.Append(merr, err)
			break
		}
		c.locker.Lock(g)
		res, err := c.rotateLocked(g, n, false)
		c.locker.Unlock(g)
		if err != nil {
			log().WithError(err).WithField("node", n).WithField("group", g.TerminalString()).Warn("rotation failed")
			merr = multierror.Append(merr, err)
			report.Results = append(report.Results, GroupResult{Group: g, Replacement: types.NoNode, Err: err.Error()})
			continue
		}
		if res != nil {
			report.Results = append(report.Results, *res)
		}
	}
	left, err := c.finishIfDrained(n)
	if err != nil {
		merr = multierror.Append(merr, err)
	}
	report.Left = left
	return report, merr.ErrorOrNil()
}

// ForceExitLocked removes n from g regardless of the freeze window. The
// caller holds g's lock. Remaining schains are left to InitiateExit.
func (c *Coordinator) ForceExitLocked(g types.GroupID, n types.NodeID) (*GroupResult, error) {
	status, err := c.registry.Status(n)
	if err != nil {
		return nil, err
	}
	if status != types.NodeLeft && status != types.NodeLeaving {
		if err := c.registry.SetStatus(n, types.NodeLeaving); err != nil {
			return nil, err
		}
	}
	res, err := c.rotateLocked(g, n, true)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, types.NewError(types.CodeInvalidState, "node %s is not in schain %s", n, g.TerminalString())
	}
	return res, nil
}

// CompleteExit moves a drained Leaving node to Left.
func (c *Coordinator) CompleteExit(n types.NodeID) error {
	status, err := c.registry.Status(n)
	if err != nil {
		return err
	}
	if status != types.NodeLeaving || len(c.index.GroupsOf(n)) > 0 {
		return ErrNotLeaving
	}
	_, err = c.finishIfDrained(n)
	return err
}

func (c *Coordinator) finishIfDrained(n types.NodeID) (bool, error) {
	if len(c.index.GroupsOf(n)) > 0 {
		return false, nil
	}
	status, err := c.registry.Status(n)
	if err != nil {
		return false, err
	}
	if status == types.NodeLeft {
		return true, nil
	}
	if err := c.registry.SetStatus(n, types.NodeLeft); err != nil {
		return false, err
	}
	log().WithField("node", n).Info("node left")
	c.route(&eventbus.NodeLeftEvent{Meta: eventbus.NewMeta(c.clock.Now()), Node: n})
	return true, nil
}

// checkFreeze returns RotationBlocked while another leaving node's rotation
// in g is frozen.
func (c *Coordinator) checkFreeze(grp *types.Group, n types.NodeID, now time.Time) error {
	c.mu.RLock()
	prev, ok := c.rotations[grp.ID]
	c.mu.RUnlock()
	if ok && now.Before(prev.FreezeUntil) && prev.LeavingNode != n {
		return types.NewError(types.CodeRotationBlocked, "Node cannot rotate on Schain %s, occupied by Node %s",
			grp.Name, prev.LeavingNode)
	}
	return nil
}

// IsRotationPossible is the dry run of rotating n out of g.
func (c *Coordinator) IsRotationPossible(g types.GroupID, n types.NodeID) error {
	grp, err := c.index.Group(g)
	if err != nil {
		return err
	}
	if _, ok := c.index.PositionOf(g, n); !ok {
		return types.NewError(types.CodeInvalidState, "node %s is not in schain %s", n, grp.Name)
	}
	return c.checkFreeze(grp, n, c.clock.Now())
}

// rotateLocked replaces n in g. Returns nil, nil when n no longer holds a
// seat in g.
func (c *Coordinator) rotateLocked(g types.GroupID, n types.NodeID, force bool) (*GroupResult, error) {
	grp, err := c.index.Group(g)
	if err != nil {
		if types.CodeOf(err) == types.CodeNotFound {
			return nil, nil
		}
		return nil, err
	}
	pos, ok := c.index.PositionOf(g, n)
	if !ok {
		return nil, nil
	}
	now := c.clock.Now()
	if !force {
		if err := c.checkFreeze(grp, n, now); err != nil {
			return nil, err
		}
	}

	_, torn, err := c.index.RemoveFromGroup(g, pos)
	if err != nil {
		return nil, err
	}
	c.registry.Release(n, grp.PartOfNode)
	c.registry.Touch(n, now)
	c.appendHistory(n, g, pos, now)

	var counter uint64 = 1
	c.mu.RLock()
	if prev, ok := c.rotations[g]; ok {
		counter = prev.RotationCounter + 1
	}
	c.mu.RUnlock()

	if torn {
		log().WithField("group", grp.Name).WithField("node", n).Info("last member left, schain removed")
		c.Forget(g)
		return &GroupResult{Group: g, Position: pos, Replacement: types.NoNode, Counter: counter, Removed: true}, nil
	}

	exclude := mapset.NewSet()
	for _, m := range grp.Slots {
		if !m.IsNone() {
			exclude.Add(m)
		}
	}
	res := &GroupResult{Group: g, Position: pos, Replacement: types.NoNode, Counter: counter}
	if picked := c.selector.Pick(g, grp.PartOfNode, exclude, counter, 1); len(picked) == 1 {
		res.Replacement = picked[0]
		if err := c.index.ReplaceAt(g, pos, res.Replacement); err != nil {
			panic(fmt.Sprintf("replacement of position %d in schain %s failed: %v", pos, grp.Name, err))
		}
		c.registry.Touch(res.Replacement, now)
	} else {
		if err := c.index.Shrink(g); err != nil {
			return nil, err
		}
		res.Shrunk = true
	}

	rec := &types.Rotation{
		Group:           g,
		LeavingNode:     n,
		NewNode:         res.Replacement,
		Position:        pos,
		RotationCounter: counter,
		StartedAt:       now,
		FreezeUntil:     now.Add(c.cfg.FreezeDelay),
		FinishedAt:      now,
	}
	c.mu.Lock()
	c.rotations[g] = rec
	c.dirtyRotations[g] = true
	c.mu.Unlock()

	members, err := c.index.Members(g)
	if err != nil {
		return nil, err
	}
	c.channels.Open(g, members)

	log().WithField("rotation", rec).WithField("shrunk", res.Shrunk).Info("node rotated")
	if !res.Replacement.IsNone() {
		c.route(&eventbus.NewGuyEvent{Meta: eventbus.NewMeta(now), Group: g, Node: res.Replacement, Position: pos})
	}
	c.route(&eventbus.NodeRotatedEvent{Meta: eventbus.NewMeta(now), Group: g, Leaving: n, New: res.Replacement,
		Position: pos, Counter: counter})
	return res, nil
}

func (c *Coordinator) appendHistory(n types.NodeID, g types.GroupID, pos uint32, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.histories[n]
	if !ok {
		h = &types.LeavingHistory{Node: n}
		c.histories[n] = h
	}
	h.Entries = append(h.Entries, types.LeavingEntry{Group: g, Position: pos, FinishedAt: at})
	c.dirtyHistories[n] = struct{}{}
}

// Select picks k fresh members for a new schain.
func (c *Coordinator) Select(g types.GroupID, part uint8, k int) []types.NodeID {
	return c.selector.Pick(g, part, mapset.NewSet(), 0, k)
}

// Rotation returns the latest rotation of g.
func (c *Coordinator) Rotation(g types.GroupID) (*types.Rotation, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.rotations[g]
	if !ok {
		return nil, types.NewError(types.CodeNotFound, "schain %s has never rotated", g.TerminalString())
	}
	return r.Clone(), nil
}

// History returns the schains n has left, oldest first.
func (c *Coordinator) History(n types.NodeID) *types.LeavingHistory {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.histories[n]
	if !ok {
		return &types.LeavingHistory{Node: n}
	}
	return h.Clone()
}

// Joined returns the latest rotations that installed n.
func (c *Coordinator) Joined(n types.NodeID) []*types.Rotation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*types.Rotation
	for _, r := range c.rotations {
		if r.NewNode == n {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FinishedAt.Equal(out[j].FinishedAt) {
			return out[i].FinishedAt.Before(out[j].FinishedAt)
		}
		return out[i].Group.Cmp(out[j].Group) < 0
	})
	return out
}

// Forget drops the channel and the rotation record of a removed schain.
// The caller holds g's lock.
func (c *Coordinator) Forget(g types.GroupID) {
	c.channels.Remove(g)
	c.mu.Lock()
	delete(c.rotations, g)
	c.dirtyRotations[g] = false
	c.mu.Unlock()
	c.route(&eventbus.GroupRemovedEvent{Meta: eventbus.NewMeta(c.clock.Now()), Group: g})
}
