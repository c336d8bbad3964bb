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

// Package node serializes operations per schain and commits every state
// change to the store in one batch.
package node

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/annchain/schain-manager/common/keylock"
	"github.com/annchain/schain-manager/consensus/complaint"
	"github.com/annchain/schain-manager/consensus/dkg"
	"github.com/annchain/schain-manager/consensus/rotation"
	"github.com/annchain/schain-manager/eventbus"
	"github.com/annchain/schain-manager/groupindex"
	"github.com/annchain/schain-manager/registry"
	"github.com/annchain/schain-manager/staking"
	"github.com/annchain/schain-manager/storage"
	"github.com/annchain/schain-manager/types"
)

type Service struct {
	cfg     Config
	clock   clockwork.Clock
	store   *storage.Store
	staking staking.Staking

	registry *registry.Registry
	index    *groupindex.Index
	dkg      *dkg.Manager
	coord    *rotation.Coordinator
	resolver *complaint.Resolver
	locks    *keylock.KeyLock

	// state is read-held by every mutating operation for its whole body and
	// write-held by commit, so a batch never carries a half-done rotation.
	state   sync.RWMutex
	ops     atomic.Uint64
	failed  atomic.Uint64
	commits atomic.Uint64
}

// NewService wires the components and restores the state kept in store.
func NewService(cfg Config, clock clockwork.Clock, store *storage.Store, stake staking.Staking,
	router eventbus.Router) (*Service, error) {
	s := &Service{
		cfg:      cfg,
		clock:    clock,
		store:    store,
		staking:  stake,
		registry: registry.New(clock),
		index:    groupindex.New(),
		locks:    keylock.New(),
	}
	s.dkg = dkg.NewManager(clock, cfg.ComplaintTimeLimit, router)
	selector := rotation.NewSelector(s.registry, stake, rotation.StaticEntropy(cfg.Entropy))
	s.coord = rotation.NewCoordinator(rotation.Config{FreezeDelay: cfg.FreezeDelay}, clock, s.registry, s.index,
		s.dkg, s.locks, selector, router)
	s.resolver = complaint.New(complaint.Config{Penalty: cfg.Penalty}, clock, s.dkg, s.coord, stake, s.registry, router)

	snap, err := store.Load()
	if err != nil {
		return nil, err
	}
	s.restore(snap)
	log().WithField("nodes", len(snap.Nodes)).WithField("groups", len(snap.Groups)).Info("state loaded")
	return s, nil
}

func log() *logrus.Entry {
	return logrus.WithField("module", "node")
}

func (s *Service) restore(snap *types.Snapshot) {
	s.registry.Restore(snap)
	s.index.Restore(snap)
	s.coord.Restore(snap)
	s.dkg.Restore(snap)
	s.resolver.Restore(snap)
}

// commit writes every dirty record of every component in one batch.
func (s *Service) commit() error {
	s.state.Lock()
	defer s.state.Unlock()
	b := s.store.NewBatch()
	s.registry.Flush(b)
	s.index.Flush(b)
	s.coord.Flush(b)
	s.dkg.Flush(b)
	s.resolver.Flush(b)
	if err := s.store.Write(b); err != nil {
		log().WithError(err).Error("failed to persist state")
		return err
	}
	s.commits.Inc()
	return nil
}

// done commits and counts one operation. err is the operation's own result.
func (s *Service) done(op string, err error) error {
	s.ops.Inc()
	if cerr := s.commit(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		s.failed.Inc()
		log().WithError(err).WithField("op", op).Debug("operation rejected")
	}
	return err
}

// Authorize checks that caller owns node n.
func (s *Service) Authorize(n types.NodeID, caller uint64) error {
	owner, err := s.registry.Owner(n)
	if err != nil {
		return err
	}
	if owner != caller {
		return types.NewError(types.CodeUnauthorized, "caller %d does not own node %s", caller, n)
	}
	return nil
}

// mutate runs fn as one in-flight change. It must not be nested.
func (s *Service) mutate(fn func() error) error {
	s.state.RLock()
	defer s.state.RUnlock()
	return fn()
}

func (s *Service) underGroup(g types.GroupID, fn func() error) error {
	s.locks.Lock(g)
	defer s.locks.Unlock(g)
	return fn()
}

func (s *Service) withGroup(g types.GroupID, fn func() error) error {
	return s.mutate(func() error {
		return s.underGroup(g, fn)
	})
}

// RequestNodeExit starts the exit of n and rotates it out of all its schains.
func (s *Service) RequestNodeExit(ctx context.Context, caller uint64, n types.NodeID) (*rotation.ExitReport, error) {
	if err := s.Authorize(n, caller); err != nil {
		return nil, s.done("exit", err)
	}
	var report *rotation.ExitReport
	err := s.mutate(func() error {
		var err error
		report, err = s.coord.InitiateExit(ctx, n)
		return err
	})
	return report, s.done("exit", err)
}

func (s *Service) CompleteExit(caller uint64, n types.NodeID) error {
	if err := s.Authorize(n, caller); err != nil {
		return s.done("complete_exit", err)
	}
	err := s.mutate(func() error {
		return s.coord.CompleteExit(n)
	})
	return s.done("complete_exit", err)
}

func (s *Service) Broadcast(caller uint64, g types.GroupID, n types.NodeID, payload *dkg.Payload) error {
	if err := s.Authorize(n, caller); err != nil {
		return s.done("broadcast", err)
	}
	err := s.withGroup(g, func() error {
		return s.dkg.Broadcast(g, n, payload)
	})
	return s.done("broadcast", err)
}

// AcceptRound records n's alright for the current round of g.
func (s *Service) AcceptRound(caller uint64, g types.GroupID, n types.NodeID) error {
	if err := s.Authorize(n, caller); err != nil {
		return s.done("alright", err)
	}
	err := s.withGroup(g, func() error {
		return s.dkg.Alright(g, n)
	})
	return s.done("alright", err)
}

// FileComplaint lets from accuse to. A slashed node is drained out of its
// remaining schains once g's lock is released.
func (s *Service) FileComplaint(ctx context.Context, caller uint64, g types.GroupID, from, to types.NodeID) (*complaint.Outcome, error) {
	return s.complain(ctx, "complaint", caller, g, from, func() (*complaint.Outcome, error) {
		return s.resolver.Complaint(g, from, to)
	})
}

func (s *Service) FileComplaintBadData(ctx context.Context, caller uint64, g types.GroupID, from, to types.NodeID) (*complaint.Outcome, error) {
	return s.complain(ctx, "complaint_bad_data", caller, g, from, func() (*complaint.Outcome, error) {
		return s.resolver.ComplaintBadData(g, from, to)
	})
}

func (s *Service) PreResponse(caller uint64, g types.GroupID, n types.NodeID, payload *dkg.Payload) error {
	if err := s.Authorize(n, caller); err != nil {
		return s.done("pre_response", err)
	}
	err := s.withGroup(g, func() error {
		return s.resolver.PreResponse(g, n, payload)
	})
	return s.done("pre_response", err)
}

func (s *Service) Response(ctx context.Context, caller uint64, g types.GroupID, n types.NodeID, share []byte) (*complaint.Outcome, error) {
	return s.complain(ctx, "response", caller, g, n, func() (*complaint.Outcome, error) {
		return s.resolver.Response(g, n, share)
	})
}

func (s *Service) complain(ctx context.Context, op string, caller uint64, g types.GroupID, actor types.NodeID,
	fn func() (*complaint.Outcome, error)) (*complaint.Outcome, error) {
	if err := s.Authorize(actor, caller); err != nil {
		return nil, s.done(op, err)
	}
	var out *complaint.Outcome
	err := s.mutate(func() error {
		err := s.underGroup(g, func() error {
			var err error
			out, err = fn()
			return err
		})
		if err == nil && out != nil && out.Action == complaint.ActionSlashed {
			s.drain(ctx, out.Slashed)
		}
		return err
	})
	return out, s.done(op, err)
}

// drain rotates a slashed node out of the schains it still holds. Failures
// stay on the node as Leaving; the owner or a later complaint retries.
func (s *Service) drain(ctx context.Context, n types.NodeID) {
	report, err := s.coord.InitiateExit(ctx, n)
	if err != nil {
		log().WithError(err).WithField("node", n).Warn("slashed node not fully drained")
		return
	}
	log().WithField("node", n).WithField("left", report.Left).Info("slashed node drained")
}

func (s *Service) IsBroadcastPossible(g types.GroupID, n types.NodeID, payload *dkg.Payload) bool {
	return s.dkg.IsBroadcastPossible(g, n, payload)
}

func (s *Service) IsAcceptPossible(g types.GroupID, n types.NodeID) bool {
	return s.dkg.IsAlrightPossible(g, n)
}

func (s *Service) IsChannelOpened(g types.GroupID) bool {
	return s.dkg.IsChannelOpened(g)
}

func (s *Service) IsLastDKGSuccessful(g types.GroupID) bool {
	return s.dkg.IsLastDKGSuccessful(g)
}

func (s *Service) IsRotationPossible(g types.GroupID, n types.NodeID) error {
	return s.coord.IsRotationPossible(g, n)
}

// Stats are the operation counters of the service.
type Stats struct {
	Operations uint64 `json:"operations"`
	Rejected   uint64 `json:"rejected"`
	Commits    uint64 `json:"commits"`
	Locks      int    `json:"locks"`
}

func (s *Service) Stats() Stats {
	return Stats{
		Operations: s.ops.Load(),
		Rejected:   s.failed.Load(),
		Commits:    s.commits.Load(),
		Locks:      s.locks.Len(),
	}
}
