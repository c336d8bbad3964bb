package rotation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	mapset "github.com/deckarep/golang-set"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/annchain/schain-manager/common/keylock"
	"github.com/annchain/schain-manager/consensus/dkg"
	"github.com/annchain/schain-manager/groupindex"
	"github.com/annchain/schain-manager/registry"
	"github.com/annchain/schain-manager/staking"
	"github.com/annchain/schain-manager/storage"
	"github.com/annchain/schain-manager/types"
)

const (
	part       = 32
	eligible   = 1
	ineligible = 99
)

type harness struct {
	clock    clockwork.FakeClock
	registry *registry.Registry
	index    *groupindex.Index
	ledger   *staking.Ledger
	dkg      *dkg.Manager
	coord    *Coordinator
}

func newHarness(t *testing.T) *harness {
	h := &harness{clock: clockwork.NewFakeClock()}
	h.registry = registry.New(h.clock)
	h.index = groupindex.New()
	h.ledger = staking.NewLedger(10)
	h.ledger.SetValidator(staking.Validator{ID: eligible, Stake: 100, Enabled: true})
	h.dkg = dkg.NewManager(h.clock, 30*time.Minute, nil)
	selector := NewSelector(h.registry, h.ledger, StaticEntropy("test"))
	h.coord = NewCoordinator(Config{}, h.clock, h.registry, h.index, h.dkg, keylock.New(), selector, nil)
	return h
}

func (h *harness) register(t *testing.T, owner uint64, count int) []types.NodeID {
	var out []types.NodeID
	for i := 0; i < count; i++ {
		n, err := h.registry.Register(fmt.Sprintf("node-%d-%d", owner, len(h.registry.Nodes())), owner, 64)
		require.NoError(t, err)
		out = append(out, n.ID)
	}
	return out
}

func (h *harness) group(t *testing.T, name string, members ...types.NodeID) types.GroupID {
	for _, m := range members {
		require.NoError(t, h.registry.Reserve(m, part))
	}
	g, err := h.index.CreateGroup(name, part, members, h.clock.Now())
	require.NoError(t, err)
	h.dkg.Open(g.ID, members)
	return g.ID
}

func members(t *testing.T, h *harness, g types.GroupID) []types.NodeID {
	m, err := h.index.Members(g)
	require.NoError(t, err)
	return m
}

func resultFor(r *ExitReport, g types.GroupID) *GroupResult {
	for i := range r.Results {
		if r.Results[i].Group == g {
			return &r.Results[i]
		}
	}
	return nil
}

func TestCoordinator_FourMemberScenario(t *testing.T) {
	h := newHarness(t)
	n := h.register(t, eligible, 5) // n0..n4
	n5 := h.register(t, ineligible, 1)[0]
	a := h.group(t, "A", n[0], n[1], n[2], n[3])
	b := h.group(t, "B", n[1], n5)
	start := h.clock.Now()

	report, err := h.coord.InitiateExit(context.Background(), n[0])
	require.NoError(t, err)
	require.True(t, report.Left)
	require.Equal(t, []types.NodeID{n[4], n[1], n[2], n[3]}, members(t, h, a))
	rec, err := h.coord.Rotation(a)
	require.NoError(t, err)
	require.Equal(t, uint64(1), rec.RotationCounter)
	require.True(t, rec.FreezeUntil.Equal(start.Add(12*time.Hour)))
	require.Equal(t, uint32(0), rec.Position)
	s, _ := h.registry.Status(n[0])
	require.Equal(t, types.NodeLeft, s)

	// n1 leaves B; A is frozen by n0's rotation
	h.clock.Advance(time.Hour)
	report, err = h.coord.InitiateExit(context.Background(), n[1])
	require.Error(t, err)
	require.Equal(t, types.CodeRotationBlocked, types.CodeOf(err))
	require.False(t, report.Left)
	require.NotEmpty(t, resultFor(report, a).Err)
	rb := resultFor(report, b)
	require.Empty(t, rb.Err)
	require.Equal(t, uint32(0), rb.Position)
	bm := members(t, h, b)
	require.Len(t, bm, 2)
	require.Contains(t, []types.NodeID{n[2], n[3], n[4]}, bm[0])
	require.Equal(t, n5, bm[1])
	require.Equal(t, []types.GroupID{a}, h.index.GroupsOf(n[1]))

	// the new occupant of A is frozen too
	report, err = h.coord.InitiateExit(context.Background(), n[4])
	require.Error(t, err)
	require.NotEmpty(t, resultFor(report, a).Err)
	require.Contains(t, members(t, h, a), n[4])
	require.Contains(t, resultFor(report, a).Err, "Node cannot rotate on Schain A, occupied by Node 0")
}

func TestCoordinator_FreezeBoundary(t *testing.T) {
	h := newHarness(t)
	n := h.register(t, eligible, 6)
	a := h.group(t, "A", n[0], n[1], n[2])
	start := h.clock.Now()

	_, err := h.coord.InitiateExit(context.Background(), n[0])
	require.NoError(t, err)

	h.clock.Advance(12*time.Hour - time.Nanosecond)
	err = h.coord.IsRotationPossible(a, n[1])
	require.True(t, errors.Is(err, types.ErrRotationBlocked))
	_, err = h.coord.InitiateExit(context.Background(), n[1])
	require.Equal(t, types.CodeRotationBlocked, types.CodeOf(err))

	h.clock.Advance(time.Nanosecond)
	require.True(t, h.clock.Now().Equal(start.Add(12*time.Hour)))
	require.NoError(t, h.coord.IsRotationPossible(a, n[1]))
	report, err := h.coord.InitiateExit(context.Background(), n[1])
	require.NoError(t, err)
	require.True(t, report.Left)
	rec, _ := h.coord.Rotation(a)
	require.Equal(t, uint64(2), rec.RotationCounter)
	require.Equal(t, uint32(1), rec.Position)
}

func TestCoordinator_PositionInvariance(t *testing.T) {
	h := newHarness(t)
	n := h.register(t, eligible, 12)
	a := h.group(t, "A", n[0], n[1], n[2], n[3])

	for i, leaving := range []types.NodeID{n[2], n[0], n[3], n[1]} {
		slots, _ := h.index.Slots(a)
		pos := -1
		for p, m := range slots {
			if m == leaving {
				pos = p
			}
		}
		require.True(t, pos >= 0)
		report, err := h.coord.InitiateExit(context.Background(), leaving)
		require.NoError(t, err)
		res := report.Results[0]
		require.Equal(t, uint32(pos), res.Position)
		require.False(t, res.Replacement.IsNone())

		after, _ := h.index.Slots(a)
		require.Len(t, after, 4)
		require.Equal(t, res.Replacement, after[pos])
		for p := range slots {
			if p != pos {
				require.Equal(t, slots[p], after[p])
			}
		}
		rec, _ := h.coord.Rotation(a)
		require.Equal(t, uint64(i+1), rec.RotationCounter)
		h.clock.Advance(12 * time.Hour)
	}
	require.Len(t, h.coord.History(n[2]).Entries, 1)
	require.Equal(t, uint32(2), h.coord.History(n[2]).Entries[0].Position)
}

func TestCoordinator_ResetsChannel(t *testing.T) {
	h := newHarness(t)
	n := h.register(t, eligible, 4)
	a := h.group(t, "A", n[0], n[1], n[2])
	p, err := dkg.NewDealer(3).Payload()
	require.NoError(t, err)
	require.NoError(t, h.dkg.Broadcast(a, n[1], p))

	_, err = h.coord.InitiateExit(context.Background(), n[0])
	require.NoError(t, err)
	s, err := h.dkg.Session(a)
	require.NoError(t, err)
	require.True(t, s.Active)
	require.Equal(t, uint64(1), s.Round)
	require.Equal(t, []types.NodeID{n[3], n[1], n[2]}, s.Members)
	require.Equal(t, []bool{false, false, false}, s.Broadcasted)
}

func TestCoordinator_ShrinkAndTeardown(t *testing.T) {
	h := newHarness(t)
	n := h.register(t, eligible, 2)
	a := h.group(t, "A", n[0], n[1])

	report, err := h.coord.InitiateExit(context.Background(), n[0])
	require.NoError(t, err)
	require.True(t, report.Results[0].Shrunk)
	grp, _ := h.index.Group(a)
	require.Equal(t, uint32(1), grp.RequiredSize)
	require.Equal(t, []types.NodeID{types.NoNode, n[1]}, grp.Slots)
	require.Equal(t, []types.NodeID{n[1]}, members(t, h, a))
	require.True(t, h.dkg.IsChannelOpened(a))
	node, _ := h.registry.Get(n[0])
	require.Equal(t, uint8(64), node.FreeSpace)

	h.clock.Advance(12 * time.Hour)
	report, err = h.coord.InitiateExit(context.Background(), n[1])
	require.NoError(t, err)
	require.True(t, report.Results[0].Removed)
	require.False(t, h.index.Exists(a))
	require.False(t, h.dkg.IsChannelOpened(a))
	_, err = h.coord.Rotation(a)
	require.Equal(t, types.CodeNotFound, types.CodeOf(err))
}

func TestCoordinator_ExitStatusRules(t *testing.T) {
	h := newHarness(t)
	n := h.register(t, eligible, 5)
	h.group(t, "A", n[0], n[1])
	h.group(t, "B", n[0], n[2])

	require.True(t, errors.Is(h.coord.CompleteExit(n[0]), ErrNotLeaving))

	require.NoError(t, h.registry.SetMaintenance(n[3], true))
	report, err := h.coord.InitiateExit(context.Background(), n[3])
	require.NoError(t, err)
	require.True(t, report.Left)
	_, err = h.coord.InitiateExit(context.Background(), n[3])
	require.Equal(t, types.CodeInvalidState, types.CodeOf(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err = h.coord.InitiateExit(ctx, n[0])
	require.Error(t, err)
	require.False(t, report.Left)
	require.True(t, errors.Is(h.coord.CompleteExit(n[0]), ErrNotLeaving))

	report, err = h.coord.InitiateExit(context.Background(), n[0])
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	require.True(t, report.Left)
	require.Len(t, h.coord.History(n[0]).Entries, 2)
}

func TestCoordinator_ForceExitIgnoresFreeze(t *testing.T) {
	h := newHarness(t)
	n := h.register(t, eligible, 6)
	a := h.group(t, "A", n[0], n[1], n[2])
	_, err := h.coord.InitiateExit(context.Background(), n[0])
	require.NoError(t, err)

	require.Error(t, h.coord.IsRotationPossible(a, n[1]))
	res, err := h.coord.ForceExitLocked(a, n[1])
	require.NoError(t, err)
	require.Equal(t, uint32(1), res.Position)
	s, _ := h.registry.Status(n[1])
	require.Equal(t, types.NodeLeaving, s)
	require.NoError(t, h.coord.CompleteExit(n[1]))
	s, _ = h.registry.Status(n[1])
	require.Equal(t, types.NodeLeft, s)
}

func TestSelector_DeterministicAndFiltered(t *testing.T) {
	h := newHarness(t)
	n := h.register(t, eligible, 8)
	bad := h.register(t, ineligible, 2)
	g := types.GroupIDFromName("sel")
	require.NoError(t, h.registry.SetMaintenance(n[7], true))

	sel := NewSelector(h.registry, h.ledger, StaticEntropy("seed"))
	require.Equal(t, sel.Seed(g, 3), sel.Seed(g, 3))
	require.NotEqual(t, sel.Seed(g, 3), sel.Seed(g, 4))

	exclude := mapset.NewSet()
	exclude.Add(n[0])
	picked := sel.Pick(g, part, exclude, 3, 10)
	require.Len(t, picked, 6)
	set := mapset.NewSet()
	for _, p := range picked {
		set.Add(p)
	}
	require.Equal(t, 6, set.Cardinality())
	for _, x := range []types.NodeID{n[0], n[7], bad[0], bad[1]} {
		require.False(t, set.Contains(x))
	}
	for _, p := range picked {
		require.False(t, h.registry.HasFreeCapacity(p, 64))
	}

	// same state and seed give the same draw
	h2 := newHarness(t)
	h2.register(t, eligible, 8)
	h2.register(t, ineligible, 2)
	require.NoError(t, h2.registry.SetMaintenance(n[7], true))
	exclude2 := mapset.NewSet()
	exclude2.Add(n[0])
	require.Equal(t, picked, NewSelector(h2.registry, h2.ledger, StaticEntropy("seed")).Pick(g, part, exclude2, 3, 10))
}

func TestCoordinator_FlushRestore(t *testing.T) {
	h := newHarness(t)
	n := h.register(t, eligible, 5)
	a := h.group(t, "A", n[0], n[1], n[2])
	_, err := h.coord.InitiateExit(context.Background(), n[0])
	require.NoError(t, err)

	s, err := storage.NewMemStore()
	require.NoError(t, err)
	defer s.Close()
	b := s.NewBatch()
	h.coord.Flush(b)
	require.NoError(t, s.Write(b))
	snap, err := s.Load()
	require.NoError(t, err)

	h2 := newHarness(t)
	h2.coord.Restore(snap)
	rec, err := h2.coord.Rotation(a)
	require.NoError(t, err)
	require.Equal(t, n[0], rec.LeavingNode)
	require.Len(t, h2.coord.History(n[0]).Entries, 1)
	require.Len(t, h2.coord.Joined(rec.NewNode), 1)
}
