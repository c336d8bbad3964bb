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

// Package complaint resolves accusations raised during a DKG round. At most
// one complaint is pending per schain; expired windows are only noticed when
// somebody calls in.
package complaint

import (
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/annchain/schain-manager/consensus/dkg"
	"github.com/annchain/schain-manager/consensus/rotation"
	"github.com/annchain/schain-manager/eventbus"
	"github.com/annchain/schain-manager/staking"
	"github.com/annchain/schain-manager/storage"
	"github.com/annchain/schain-manager/types"
)

const (
	ReasonGroupNotCreated    = "Group is not created"
	ReasonNodeNotInGroup     = "Node is not in this group"
	ReasonTooEarly           = "Complaint sent too early"
	ReasonAlreadySentAlright = "Has already sent alright"
	ReasonSameComplaint      = "The same complaint rejected"
	ReasonOneComplaintSent   = "One complaint is already sent"
)

// Slasher forces a node out of a schain. The caller holds the schain lock.
type Slasher interface {
	ForceExitLocked(g types.GroupID, n types.NodeID) (*rotation.GroupResult, error)
}

type Owners interface {
	Owner(n types.NodeID) (uint64, error)
}

type Config struct {
	Penalty uint64
}

type Action string

const (
	ActionRejected  Action = "rejected"
	ActionOpened    Action = "opened"
	ActionResponded Action = "responded"
	ActionSlashed   Action = "slashed"
)

// Outcome describes what a complaint call did.
type Outcome struct {
	Action   Action                `json:"action"`
	Slashed  types.NodeID          `json:"slashed"`
	Reason   string                `json:"reason,omitempty"`
	Rotation *rotation.GroupResult `json:"rotation,omitempty"`
}

type Resolver struct {
	cfg     Config
	clock   clockwork.Clock
	dkg     *dkg.Manager
	slasher Slasher
	staking staking.Staking
	owners  Owners
	router  eventbus.Router

	mu         sync.RWMutex
	complaints map[types.GroupID]*types.Complaint
	dirty      map[types.GroupID]bool
}

// New wires the resolver into the dkg manager: pending accusers cannot send
// alright, and a reopened channel drops the pending complaint.
func New(cfg Config, clock clockwork.Clock, channels *dkg.Manager, slasher Slasher, stake staking.Staking,
	owners Owners, router eventbus.Router) *Resolver {
	r := &Resolver{
		cfg:        cfg,
		clock:      clock,
		dkg:        channels,
		slasher:    slasher,
		staking:    stake,
		owners:     owners,
		router:     router,
		complaints: make(map[types.GroupID]*types.Complaint),
		dirty:      make(map[types.GroupID]bool),
	}
	channels.SetComplaintView(r)
	channels.OnReset(func(g types.GroupID, removed bool) { r.clear(g) })
	return r
}

func log() *logrus.Entry {
	return logrus.WithField("module", "complaint")
}

func (r *Resolver) route(ev eventbus.Event) {
	if r.router != nil {
		r.router.Route(ev)
	}
}

// Accuser returns the author of the pending complaint of g, or NoNode.
func (r *Resolver) Accuser(g types.GroupID) types.NodeID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.complaints[g]
	if !ok || !c.Pending() {
		return types.NoNode
	}
	return c.FromNode
}

func (r *Resolver) Pending(g types.GroupID) (*types.Complaint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.complaints[g]
	if !ok || !c.Pending() {
		return nil, false
	}
	return c.Clone(), true
}

func (r *Resolver) clear(g types.GroupID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.complaints[g]; ok {
		delete(r.complaints, g)
		r.dirty[g] = false
	}
}

func (r *Resolver) open(g types.GroupID, from, to types.NodeID, now time.Time) {
	r.mu.Lock()
	r.complaints[g] = &types.Complaint{
		Group:           g,
		NodeToComplaint: to,
		FromNode:        from,
		StartedAt:       now,
	}
	r.dirty[g] = true
	r.mu.Unlock()
}

func (r *Resolver) reject(g types.GroupID, from, to types.NodeID, reason string) *Outcome {
	log().WithField("group", g.TerminalString()).WithField("from", from).WithField("to", to).
		WithField("reason", reason).Info("complaint rejected")
	r.route(&eventbus.ComplaintErrorEvent{Meta: eventbus.NewMeta(r.clock.Now()), Group: g, From: from, To: to, Reason: reason})
	return &Outcome{Action: ActionRejected, Slashed: types.NoNode, Reason: reason}
}

// precheck applies the soft checks shared by both complaint kinds.
func (r *Resolver) precheck(g types.GroupID, from, to types.NodeID) (*types.Session, *Outcome, error) {
	if from == to {
		return nil, nil, types.NewError(types.CodeInvalidState, "node %s cannot complain about itself", from)
	}
	s, err := r.dkg.Session(g)
	if err != nil || !s.Active {
		return nil, r.reject(g, from, to, ReasonGroupNotCreated), nil
	}
	if s.IndexOf(to) < 0 {
		return nil, r.reject(g, from, to, ReasonNodeNotInGroup), nil
	}
	idx := s.IndexOf(from)
	if idx < 0 || !s.Broadcasted[idx] {
		return nil, nil, types.NewError(types.CodeInvalidState, "node %s has not broadcasted", from)
	}
	return s, nil, nil
}

// Complaint handles from accusing to of a missing broadcast, a missing
// alright, or bad data.
func (r *Resolver) Complaint(g types.GroupID, from, to types.NodeID) (*Outcome, error) {
	s, out, err := r.precheck(g, from, to)
	if s == nil {
		return out, err
	}
	now := r.clock.Now()
	toIdx := s.IndexOf(to)
	if !s.Broadcasted[toIdx] {
		if !now.Before(s.StartedAt.Add(r.dkg.TimeLimit())) {
			return r.FinalizeSlash(g, to)
		}
		return r.reject(g, from, to, ReasonTooEarly), nil
	}

	pending, ok := r.Pending(g)
	if !ok {
		everyone := int(s.NumBroadcasted) == len(s.Members)
		if everyone && !s.Completed[toIdx] && !now.Before(s.StartAlrightAt.Add(r.dkg.TimeLimit())) {
			return r.FinalizeSlash(g, to)
		}
		if !s.Completed[s.IndexOf(from)] {
			r.open(g, from, to, now)
			log().WithField("group", g.TerminalString()).WithField("from", from).WithField("to", to).Info("complaint opened")
			r.route(&eventbus.ComplaintSentEvent{Meta: eventbus.NewMeta(now), Group: g, From: from, To: to})
			return &Outcome{Action: ActionOpened, Slashed: types.NoNode}, nil
		}
		return r.reject(g, from, to, ReasonAlreadySentAlright), nil
	}
	if pending.NodeToComplaint == to {
		if !now.Before(pending.StartedAt.Add(r.dkg.TimeLimit())) {
			return r.FinalizeSlash(g, to)
		}
		return r.reject(g, from, to, ReasonSameComplaint), nil
	}
	r.reject(g, from, to, ReasonOneComplaintSent)
	return nil, types.NewError(types.CodeAlreadyPending, "schain %s already has a complaint against node %s",
		g.TerminalString(), pending.NodeToComplaint)
}

// ComplaintBadData opens a complaint that to's broadcast data is wrong.
func (r *Resolver) ComplaintBadData(g types.GroupID, from, to types.NodeID) (*Outcome, error) {
	s, out, err := r.precheck(g, from, to)
	if s == nil {
		return out, err
	}
	toIdx := s.IndexOf(to)
	if !s.Broadcasted[toIdx] {
		return nil, types.NewError(types.CodeInvalidState, "accused node %s has not broadcasted", to)
	}
	if s.Completed[toIdx] {
		return nil, types.NewError(types.CodeInvalidState, "accused node %s has already sent alright", to)
	}
	if s.Completed[s.IndexOf(from)] {
		return r.reject(g, from, to, ReasonAlreadySentAlright), nil
	}
	if pending, ok := r.Pending(g); ok {
		r.reject(g, from, to, ReasonOneComplaintSent)
		return nil, types.NewError(types.CodeAlreadyPending, "schain %s already has a complaint against node %s",
			g.TerminalString(), pending.NodeToComplaint)
	}
	now := r.clock.Now()
	r.open(g, from, to, now)
	log().WithField("group", g.TerminalString()).WithField("from", from).WithField("to", to).Info("bad data complaint opened")
	r.route(&eventbus.ComplaintSentEvent{Meta: eventbus.NewMeta(now), Group: g, From: from, To: to, BadData: true})
	return &Outcome{Action: ActionOpened, Slashed: types.NoNode}, nil
}

func (r *Resolver) pendingAgainst(g types.GroupID, accused types.NodeID) (*types.Complaint, error) {
	c, ok := r.Pending(g)
	if !ok || c.NodeToComplaint != accused {
		return nil, types.NewError(types.CodeInvalidState, "node %s is not accused in schain %s", accused, g.TerminalString())
	}
	if !r.clock.Now().Before(c.StartedAt.Add(r.dkg.TimeLimit())) {
		return nil, types.NewError(types.CodeInvalidState, "response window for node %s is over", accused)
	}
	return c, nil
}

// PreResponse lets the accused resubmit its broadcast. It must match what
// was stored when it broadcast.
func (r *Resolver) PreResponse(g types.GroupID, accused types.NodeID, payload *dkg.Payload) error {
	c, err := r.pendingAgainst(g, accused)
	if err != nil {
		return err
	}
	if c.IsResponse {
		return types.NewError(types.CodeInvalidState, "pre-response already sent")
	}
	stored, ok := r.dkg.DataHash(g, accused)
	if !ok || payload == nil || string(stored) != string(payload.Hash()) {
		return types.NewError(types.CodeInvalidState, "broadcast data does not match")
	}
	r.mu.Lock()
	cur := r.complaints[g]
	cur.IsResponse = true
	cur.VerificationVector = make([][]byte, len(payload.VerificationVector))
	for i, v := range payload.VerificationVector {
		cur.VerificationVector[i] = append([]byte(nil), v...)
	}
	r.dirty[g] = true
	r.mu.Unlock()
	log().WithField("group", g.TerminalString()).WithField("node", accused).Info("pre-response accepted")
	return nil
}

// Response reveals the share the accused dealt to the accuser. A share that
// passes the Feldman check slashes the accuser, otherwise the accused.
func (r *Resolver) Response(g types.GroupID, accused types.NodeID, shareBytes []byte) (*Outcome, error) {
	c, err := r.pendingAgainst(g, accused)
	if err != nil {
		return nil, err
	}
	if !c.IsResponse {
		return nil, types.NewError(types.CodeInvalidState, "pre-response has not been sent")
	}
	s, err := r.dkg.Session(g)
	if err != nil {
		return nil, err
	}
	idx := s.IndexOf(c.FromNode)
	if idx < 0 {
		return nil, types.NewError(types.CodeInvalidState, "accuser %s is not in schain %s", c.FromNode, g.TerminalString())
	}
	valid, err := dkg.VerifyShare(r.dkg.Suite(), c.VerificationVector, idx, shareBytes)
	if err != nil {
		log().WithError(err).WithField("node", accused).Warn("malformed response share")
		valid = false
	}
	if valid {
		return r.FinalizeSlash(g, c.FromNode)
	}
	return r.FinalizeSlash(g, accused)
}

// FinalizeSlash forces n out of g, then punishes it. Nothing is emitted or
// charged when the forced rotation fails. The caller holds g's lock; n's
// other schains are drained afterwards by the caller.
func (r *Resolver) FinalizeSlash(g types.GroupID, n types.NodeID) (*Outcome, error) {
	var round uint64
	if s, err := r.dkg.Session(g); err == nil {
		round = s.Round
	}
	res, err := r.slasher.ForceExitLocked(g, n)
	if err != nil {
		log().WithError(err).WithField("group", g.TerminalString()).WithField("node", n).Error("forced rotation failed")
		return nil, err
	}

	now := r.clock.Now()
	log().WithField("group", g.TerminalString()).WithField("node", n).Warn("slashing node")
	r.route(&eventbus.BadGuyEvent{Meta: eventbus.NewMeta(now), Group: g, Node: n})
	r.route(&eventbus.FailedDKGEvent{Meta: eventbus.NewMeta(now), Group: g, Round: round})
	r.clear(g)
	if owner, err := r.owners.Owner(n); err == nil {
		r.staking.HandleSlash(owner, r.cfg.Penalty)
	} else {
		log().WithError(err).WithField("node", n).Warn("cannot find owner of slashed node")
	}
	return &Outcome{Action: ActionSlashed, Slashed: n, Rotation: res}, nil
}

func (r *Resolver) Flush(b *storage.Batch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for g, put := range r.dirty {
		if c, ok := r.complaints[g]; put && ok {
			b.PutComplaint(c)
		} else {
			b.DeleteComplaint(g)
		}
	}
	r.dirty = make(map[types.GroupID]bool)
}

func (r *Resolver) Export(snap *types.Snapshot) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]types.GroupID, 0, len(r.complaints))
	for g := range r.complaints {
		ids = append(ids, g)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Cmp(ids[j]) < 0 })
	for _, g := range ids {
		snap.Complaints = append(snap.Complaints, r.complaints[g].Clone())
	}
}

func (r *Resolver) Restore(snap *types.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.complaints = make(map[types.GroupID]*types.Complaint, len(snap.Complaints))
	r.dirty = make(map[types.GroupID]bool)
	for _, c := range snap.Complaints {
		if c != nil && c.Pending() {
			r.complaints[c.Group] = c.Clone()
		}
	}
}
