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

// Package dkg tracks the DKG channel of every schain: who has broadcast its
// commitments and who has acknowledged receiving everybody's data.
package dkg

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/annchain/kyber/v3/pairing/bn256"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/annchain/schain-manager/eventbus"
	"github.com/annchain/schain-manager/storage"
	"github.com/annchain/schain-manager/types"
)

const DefaultComplaintTimeLimit = 30 * time.Minute

// ComplaintView exposes the accuser of the pending complaint, or NoNode.
type ComplaintView interface {
	Accuser(g types.GroupID) types.NodeID
}

// ResetListener is called after a channel is reopened or removed, outside
// of the manager's lock.
type ResetListener func(g types.GroupID, removed bool)

type Manager struct {
	clock     clockwork.Clock
	timeLimit time.Duration
	suite     *bn256.Suite
	router    eventbus.Router

	complaints ComplaintView
	listeners  []ResetListener

	mu       sync.RWMutex
	sessions map[types.GroupID]*types.Session
	dirty    map[types.GroupID]bool
}

func NewManager(clock clockwork.Clock, timeLimit time.Duration, router eventbus.Router) *Manager {
	if timeLimit <= 0 {
		timeLimit = DefaultComplaintTimeLimit
	}
	return &Manager{
		clock:     clock,
		timeLimit: timeLimit,
		suite:     bn256.NewSuiteG2(),
		router:    router,
		sessions:  make(map[types.GroupID]*types.Session),
		dirty:     make(map[types.GroupID]bool),
	}
}

func log() *logrus.Entry {
	return logrus.WithField("module", "dkg")
}

// SetComplaintView must be called during wiring, before any traffic.
func (m *Manager) SetComplaintView(v ComplaintView) {
	m.complaints = v
}

// OnReset registers a listener. Wiring time only.
func (m *Manager) OnReset(l ResetListener) {
	m.listeners = append(m.listeners, l)
}

func (m *Manager) Suite() *bn256.Suite {
	return m.suite
}

func (m *Manager) TimeLimit() time.Duration {
	return m.timeLimit
}

// ErrNotPossible is wrapped by every rejected channel operation. It matches
// types.ErrInvalidState.
var ErrNotPossible = &types.Error{Code: types.CodeInvalidState, Msg: "NotPossible"}

func notPossible(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrNotPossible}, args...)...)
}

// Open starts a new round for the given members, discarding any in-flight
// broadcasts and acknowledgements of the previous round.
func (m *Manager) Open(g types.GroupID, members []types.NodeID) *types.Session {
	now := m.clock.Now()
	n := len(members)
	m.mu.Lock()
	s := &types.Session{
		Group:       g,
		Active:      true,
		Members:     append([]types.NodeID(nil), members...),
		StartedAt:   now,
		Broadcasted: make([]bool, n),
		Completed:   make([]bool, n),
		HashedData:  make([][]byte, n),
	}
	if prev, ok := m.sessions[g]; ok {
		s.Round = prev.Round + 1
		s.LastSuccessfulAt = prev.LastSuccessfulAt
	}
	m.sessions[g] = s
	m.dirty[g] = true
	out := s.Clone()
	m.mu.Unlock()

	log().WithField("group", g.TerminalString()).WithField("round", s.Round).WithField("members", members).Info("dkg channel opened")
	m.route(&eventbus.ChannelOpenedEvent{Meta: eventbus.NewMeta(now), Group: g, Round: out.Round, Members: out.Members})
	m.notify(g, false)
	return out
}

// Remove drops the channel of a torn down group.
func (m *Manager) Remove(g types.GroupID) {
	m.mu.Lock()
	_, ok := m.sessions[g]
	delete(m.sessions, g)
	m.dirty[g] = false
	m.mu.Unlock()
	if ok {
		m.notify(g, true)
	}
}

func (m *Manager) notify(g types.GroupID, removed bool) {
	for _, l := range m.listeners {
		l(g, removed)
	}
}

func (m *Manager) route(ev eventbus.Event) {
	if m.router != nil {
		m.router.Route(ev)
	}
}

func (m *Manager) Session(g types.GroupID) (*types.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[g]
	if !ok {
		return nil, types.NewError(types.CodeNotFound, "no dkg channel for schain %s", g.TerminalString())
	}
	return s.Clone(), nil
}

func (m *Manager) IsChannelOpened(g types.GroupID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[g]
	return ok && s.Active
}

func (m *Manager) checkBroadcast(g types.GroupID, n types.NodeID, payload *Payload) (*types.Session, int, error) {
	s, ok := m.sessions[g]
	if !ok || !s.Active {
		return nil, -1, notPossible("dkg channel of schain %s is not opened", g.TerminalString())
	}
	idx := s.IndexOf(n)
	if idx < 0 {
		return nil, -1, notPossible("node %s is not in schain %s", n, g.TerminalString())
	}
	if s.Broadcasted[idx] {
		return nil, -1, notPossible("node %s has already broadcast", n)
	}
	if !m.clock.Now().Before(s.StartedAt.Add(m.timeLimit)) {
		return nil, -1, notPossible("broadcast window of schain %s is over", g.TerminalString())
	}
	if payload != nil {
		if err := payload.Validate(m.suite, len(s.Members)); err != nil {
			return nil, -1, notPossible("incorrect broadcast data: %v", err)
		}
	}
	return s, idx, nil
}

// IsBroadcastPossible is the dry run of Broadcast. A nil payload skips the
// payload checks.
func (m *Manager) IsBroadcastPossible(g types.GroupID, n types.NodeID, payload *Payload) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, _, err := m.checkBroadcast(g, n, payload)
	return err == nil
}

func (m *Manager) Broadcast(g types.GroupID, n types.NodeID, payload *Payload) error {
	if payload == nil {
		return notPossible("empty broadcast data")
	}
	now := m.clock.Now()
	m.mu.Lock()
	s, idx, err := m.checkBroadcast(g, n, payload)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	s.Broadcasted[idx] = true
	s.HashedData[idx] = payload.Hash()
	s.NumBroadcasted++
	if int(s.NumBroadcasted) == len(s.Members) {
		s.StartAlrightAt = now
	}
	round := s.Round
	m.dirty[g] = true
	m.mu.Unlock()

	log().WithField("group", g.TerminalString()).WithField("node", n).Debug("broadcast received")
	m.route(&eventbus.BroadcastAndKeyShareEvent{Meta: eventbus.NewMeta(now), Group: g, Node: n, Round: round})
	return nil
}

func (m *Manager) checkAlright(g types.GroupID, n types.NodeID, accuser types.NodeID) (*types.Session, int, error) {
	s, ok := m.sessions[g]
	if !ok || !s.Active {
		return nil, -1, notPossible("dkg channel of schain %s is not opened", g.TerminalString())
	}
	idx := s.IndexOf(n)
	if idx < 0 {
		return nil, -1, notPossible("node %s is not in schain %s", n, g.TerminalString())
	}
	if int(s.NumBroadcasted) != len(s.Members) {
		return nil, -1, notPossible("still waiting for broadcasts in schain %s", g.TerminalString())
	}
	if s.Completed[idx] {
		return nil, -1, notPossible("node %s has already sent alright", n)
	}
	if accuser == n {
		return nil, -1, notPossible("node %s has a pending complaint", n)
	}
	return s, idx, nil
}

func (m *Manager) accuser(g types.GroupID) types.NodeID {
	if m.complaints == nil {
		return types.NoNode
	}
	return m.complaints.Accuser(g)
}

func (m *Manager) IsAlrightPossible(g types.GroupID, n types.NodeID) bool {
	accuser := m.accuser(g)
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, _, err := m.checkAlright(g, n, accuser)
	return err == nil
}

// Alright records that n received everybody's data. The last one closes the
// channel as successful.
func (m *Manager) Alright(g types.GroupID, n types.NodeID) error {
	accuser := m.accuser(g)
	now := m.clock.Now()
	m.mu.Lock()
	s, idx, err := m.checkAlright(g, n, accuser)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	s.Completed[idx] = true
	s.NumCompleted++
	done := int(s.NumCompleted) == len(s.Members)
	if done {
		s.Active = false
		s.LastSuccessfulAt = now
	}
	round := s.Round
	m.dirty[g] = true
	m.mu.Unlock()

	m.route(&eventbus.AllDataReceivedEvent{Meta: eventbus.NewMeta(now), Group: g, Node: n})
	if done {
		log().WithField("group", g.TerminalString()).WithField("round", round).Info("dkg succeeded")
		m.route(&eventbus.SuccessfulDKGEvent{Meta: eventbus.NewMeta(now), Group: g, Round: round})
	}
	return nil
}

func (m *Manager) IsEveryoneBroadcasted(g types.GroupID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[g]
	return ok && int(s.NumBroadcasted) == len(s.Members)
}

func (m *Manager) IsBroadcasted(g types.GroupID, n types.NodeID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[g]
	if !ok {
		return false
	}
	idx := s.IndexOf(n)
	return idx >= 0 && s.Broadcasted[idx]
}

// IsAllDataReceived reports whether n has sent alright in the current round.
func (m *Manager) IsAllDataReceived(g types.GroupID, n types.NodeID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[g]
	if !ok {
		return false
	}
	idx := s.IndexOf(n)
	return idx >= 0 && s.Completed[idx]
}

// IsLastDKGSuccessful reports whether the current round finished.
func (m *Manager) IsLastDKGSuccessful(g types.GroupID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[g]
	return ok && !s.Active && !s.LastSuccessfulAt.IsZero() && !s.LastSuccessfulAt.Before(s.StartedAt)
}

// BroadcastDeadline is the end of the broadcast window.
func (m *Manager) BroadcastDeadline(g types.GroupID) (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[g]
	if !ok {
		return time.Time{}, false
	}
	return s.StartedAt.Add(m.timeLimit), true
}

// AlrightDeadline is the end of the alright window. It only exists once
// everybody has broadcast.
func (m *Manager) AlrightDeadline(g types.GroupID) (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[g]
	if !ok || int(s.NumBroadcasted) != len(s.Members) {
		return time.Time{}, false
	}
	return s.StartAlrightAt.Add(m.timeLimit), true
}

// DataHash returns the stored digest of n's broadcast.
func (m *Manager) DataHash(g types.GroupID, n types.NodeID) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[g]
	if !ok {
		return nil, false
	}
	idx := s.IndexOf(n)
	if idx < 0 || !s.Broadcasted[idx] {
		return nil, false
	}
	return append([]byte(nil), s.HashedData[idx]...), true
}

func (m *Manager) Flush(b *storage.Batch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for g, put := range m.dirty {
		if s, ok := m.sessions[g]; put && ok {
			b.PutSession(s)
		} else {
			b.DeleteSession(g)
		}
	}
	m.dirty = make(map[types.GroupID]bool)
}

func (m *Manager) Export(snap *types.Snapshot) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]types.GroupID, 0, len(m.sessions))
	for g := range m.sessions {
		ids = append(ids, g)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Cmp(ids[j]) < 0 })
	for _, g := range ids {
		snap.Sessions = append(snap.Sessions, m.sessions[g].Clone())
	}
}

func (m *Manager) Restore(snap *types.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[types.GroupID]*types.Session, len(snap.Sessions))
	m.dirty = make(map[types.GroupID]bool)
	for _, s := range snap.Sessions {
		if s != nil {
			m.sessions[s.Group] = s.Clone()
		}
	}
}
