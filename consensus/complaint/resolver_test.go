package complaint

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/annchain/schain-manager/common/keylock"
	"github.com/annchain/schain-manager/consensus/dkg"
	"github.com/annchain/schain-manager/consensus/rotation"
	"github.com/annchain/schain-manager/eventbus"
	"github.com/annchain/schain-manager/groupindex"
	"github.com/annchain/schain-manager/registry"
	"github.com/annchain/schain-manager/staking"
	"github.com/annchain/schain-manager/storage"
	"github.com/annchain/schain-manager/types"
)

const (
	part    = 16
	owner   = 1
	penalty = 5
	limit   = 30 * time.Minute
)

type recorder struct {
	events []eventbus.Event
}

func (r *recorder) Route(ev eventbus.Event) {
	r.events = append(r.events, ev)
}

func (r *recorder) reasons() []string {
	var out []string
	for _, ev := range r.events {
		if e, ok := ev.(*eventbus.ComplaintErrorEvent); ok {
			out = append(out, e.Reason)
		}
	}
	return out
}

func (r *recorder) count(t eventbus.EventType) int {
	c := 0
	for _, ev := range r.events {
		if ev.GetEventType() == t {
			c++
		}
	}
	return c
}

type harness struct {
	clock    clockwork.FakeClock
	events   *recorder
	registry *registry.Registry
	index    *groupindex.Index
	ledger   *staking.Ledger
	dkg      *dkg.Manager
	coord    *rotation.Coordinator
	resolver *Resolver
	dealers  map[types.NodeID]*dkg.Dealer
	payloads map[types.NodeID]*dkg.Payload
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		clock:    clockwork.NewFakeClock(),
		events:   &recorder{},
		dealers:  make(map[types.NodeID]*dkg.Dealer),
		payloads: make(map[types.NodeID]*dkg.Payload),
	}
	h.registry = registry.New(h.clock)
	h.index = groupindex.New()
	h.ledger = staking.NewLedger(10)
	h.ledger.SetValidator(staking.Validator{ID: owner, Stake: 100, Enabled: true})
	h.dkg = dkg.NewManager(h.clock, limit, h.events)
	selector := rotation.NewSelector(h.registry, h.ledger, rotation.StaticEntropy("complaint"))
	h.coord = rotation.NewCoordinator(rotation.Config{}, h.clock, h.registry, h.index, h.dkg, keylock.New(), selector, h.events)
	h.resolver = New(Config{Penalty: penalty}, h.clock, h.dkg, h.coord, h.ledger, h.registry, h.events)
	return h
}

// setup registers count nodes, seats the first size of them in one schain
// and leaves the rest as spares.
func (h *harness) setup(t *testing.T, count, size int) (types.GroupID, []types.NodeID) {
	var nodes []types.NodeID
	for i := 0; i < count; i++ {
		n, err := h.registry.Register(fmt.Sprintf("node-%d", i), owner, 64)
		require.NoError(t, err)
		nodes = append(nodes, n.ID)
	}
	members := nodes[:size]
	for _, m := range members {
		require.NoError(t, h.registry.Reserve(m, part))
	}
	g, err := h.index.CreateGroup("schain", part, members, h.clock.Now())
	require.NoError(t, err)
	h.dkg.Open(g.ID, members)
	return g.ID, nodes
}

func (h *harness) broadcast(t *testing.T, g types.GroupID, n types.NodeID) {
	s, err := h.dkg.Session(g)
	require.NoError(t, err)
	d := dkg.NewDealer(len(s.Members))
	p, err := d.Payload()
	require.NoError(t, err)
	require.NoError(t, h.dkg.Broadcast(g, n, p))
	h.dealers[n] = d
	h.payloads[n] = p
}

func requireSlashed(t *testing.T, h *harness, out *Outcome, n types.NodeID) {
	require.Equal(t, ActionSlashed, out.Action)
	require.Equal(t, n, out.Slashed)
	require.NotNil(t, out.Rotation)
	s, err := h.registry.Status(n)
	require.NoError(t, err)
	require.Equal(t, types.NodeLeaving, s)
	require.Empty(t, h.index.GroupsOf(n))
	v, ok := h.ledger.Validator(owner)
	require.True(t, ok)
	require.Equal(t, uint64(penalty), v.Slashed)
	require.Equal(t, 1, h.events.count(eventbus.EventBadGuy))
	require.Equal(t, 1, h.events.count(eventbus.EventFailedDKG))
}

func TestResolver_MissingBroadcastTimeout(t *testing.T) {
	h := newHarness(t)
	g, n := h.setup(t, 4, 3)
	h.broadcast(t, g, n[0])

	out, err := h.resolver.Complaint(g, n[0], n[1])
	require.NoError(t, err)
	require.Equal(t, ActionRejected, out.Action)
	require.Equal(t, []string{ReasonTooEarly}, h.events.reasons())

	h.clock.Advance(limit - time.Nanosecond)
	out, err = h.resolver.Complaint(g, n[0], n[1])
	require.NoError(t, err)
	require.Equal(t, ActionRejected, out.Action)

	h.clock.Advance(time.Nanosecond)
	out, err = h.resolver.Complaint(g, n[0], n[1])
	require.NoError(t, err)
	requireSlashed(t, h, out, n[1])
	require.Equal(t, n[3], out.Rotation.Replacement)
	require.Equal(t, uint32(1), out.Rotation.Position)

	m, err := h.index.Members(g)
	require.NoError(t, err)
	require.Equal(t, []types.NodeID{n[0], n[3], n[2]}, m)
	// the reopened channel starts a new round with nobody broadcast
	s, err := h.dkg.Session(g)
	require.NoError(t, err)
	require.Equal(t, uint64(1), s.Round)
	require.Equal(t, uint32(0), s.NumBroadcasted)
}

func TestResolver_OnePendingComplaint(t *testing.T) {
	h := newHarness(t)
	g, n := h.setup(t, 5, 4)
	h.broadcast(t, g, n[0])
	h.broadcast(t, g, n[1])
	h.broadcast(t, g, n[2])

	out, err := h.resolver.Complaint(g, n[0], n[1])
	require.NoError(t, err)
	require.Equal(t, ActionOpened, out.Action)
	require.Equal(t, n[0], h.resolver.Accuser(g))
	require.Equal(t, 1, h.events.count(eventbus.EventComplaintSent))

	_, err = h.resolver.Complaint(g, n[2], n[0])
	require.Error(t, err)
	require.True(t, errors.Is(err, types.ErrAlreadyPending))
	_, err = h.resolver.ComplaintBadData(g, n[2], n[0])
	require.True(t, errors.Is(err, types.ErrAlreadyPending))

	out, err = h.resolver.Complaint(g, n[2], n[1])
	require.NoError(t, err)
	require.Equal(t, ActionRejected, out.Action)
	require.Equal(t, ReasonSameComplaint, out.Reason)

	h.clock.Advance(limit)
	out, err = h.resolver.Complaint(g, n[2], n[1])
	require.NoError(t, err)
	requireSlashed(t, h, out, n[1])
	_, ok := h.resolver.Pending(g)
	require.False(t, ok)
	require.Equal(t, types.NoNode, h.resolver.Accuser(g))
}

func TestResolver_SoftRejections(t *testing.T) {
	h := newHarness(t)
	g, n := h.setup(t, 4, 3)

	out, err := h.resolver.Complaint(types.GroupIDFromName("missing"), n[0], n[1])
	require.NoError(t, err)
	require.Equal(t, ReasonGroupNotCreated, out.Reason)

	out, err = h.resolver.Complaint(g, n[0], n[3])
	require.NoError(t, err)
	require.Equal(t, ReasonNodeNotInGroup, out.Reason)

	// accuser must have broadcast itself
	_, err = h.resolver.Complaint(g, n[0], n[1])
	require.True(t, errors.Is(err, types.ErrInvalidState))

	require.Equal(t, []string{ReasonGroupNotCreated, ReasonNodeNotInGroup}, h.events.reasons())
	require.Equal(t, 2, h.events.count(eventbus.EventComplaintError))
}

func TestResolver_MissingAlright(t *testing.T) {
	h := newHarness(t)
	g, n := h.setup(t, 3, 2)
	h.broadcast(t, g, n[0])
	h.broadcast(t, g, n[1])
	require.NoError(t, h.dkg.Alright(g, n[0]))

	out, err := h.resolver.Complaint(g, n[0], n[1])
	require.NoError(t, err)
	require.Equal(t, ReasonAlreadySentAlright, out.Reason)

	h.clock.Advance(limit)
	out, err = h.resolver.Complaint(g, n[0], n[1])
	require.NoError(t, err)
	requireSlashed(t, h, out, n[1])
	m, err := h.index.Members(g)
	require.NoError(t, err)
	require.Equal(t, []types.NodeID{n[0], n[2]}, m)
}

func TestResolver_BadDataValidResponse(t *testing.T) {
	h := newHarness(t)
	g, n := h.setup(t, 4, 3)
	for _, m := range n[:3] {
		h.broadcast(t, g, m)
	}

	out, err := h.resolver.ComplaintBadData(g, n[0], n[1])
	require.NoError(t, err)
	require.Equal(t, ActionOpened, out.Action)
	require.False(t, h.dkg.IsAlrightPossible(g, n[0]))
	require.True(t, h.dkg.IsAlrightPossible(g, n[2]))

	share, err := h.dealers[n[1]].Share(0)
	require.NoError(t, err)
	_, err = h.resolver.Response(g, n[1], share)
	require.True(t, errors.Is(err, types.ErrInvalidState), "response before pre-response")

	require.Error(t, h.resolver.PreResponse(g, n[1], h.payloads[n[2]]))
	require.Error(t, h.resolver.PreResponse(g, n[2], h.payloads[n[2]]))
	require.NoError(t, h.resolver.PreResponse(g, n[1], h.payloads[n[1]]))
	require.Error(t, h.resolver.PreResponse(g, n[1], h.payloads[n[1]]))

	out, err = h.resolver.Response(g, n[1], share)
	require.NoError(t, err)
	requireSlashed(t, h, out, n[0])
}

func TestResolver_BadDataInvalidResponse(t *testing.T) {
	h := newHarness(t)
	g, n := h.setup(t, 4, 3)
	for _, m := range n[:3] {
		h.broadcast(t, g, m)
	}
	_, err := h.resolver.ComplaintBadData(g, n[0], n[1])
	require.NoError(t, err)
	require.NoError(t, h.resolver.PreResponse(g, n[1], h.payloads[n[1]]))

	wrong, err := h.dealers[n[1]].Share(2)
	require.NoError(t, err)
	out, err := h.resolver.Response(g, n[1], wrong)
	require.NoError(t, err)
	requireSlashed(t, h, out, n[1])
}

func TestResolver_ResponseWindow(t *testing.T) {
	h := newHarness(t)
	g, n := h.setup(t, 4, 3)
	for _, m := range n[:3] {
		h.broadcast(t, g, m)
	}
	_, err := h.resolver.ComplaintBadData(g, n[0], n[1])
	require.NoError(t, err)

	h.clock.Advance(limit)
	require.True(t, errors.Is(h.resolver.PreResponse(g, n[1], h.payloads[n[1]]), types.ErrInvalidState))
	// the accused stayed silent, the accuser finalizes
	out, err := h.resolver.Complaint(g, n[0], n[1])
	require.NoError(t, err)
	requireSlashed(t, h, out, n[1])
}

func TestResolver_BadDataAfterAlright(t *testing.T) {
	h := newHarness(t)
	g, n := h.setup(t, 3, 2)
	h.broadcast(t, g, n[0])

	_, err := h.resolver.ComplaintBadData(g, n[0], n[1])
	require.True(t, errors.Is(err, types.ErrInvalidState))

	h.broadcast(t, g, n[1])
	require.NoError(t, h.dkg.Alright(g, n[1]))
	_, err = h.resolver.ComplaintBadData(g, n[0], n[1])
	require.True(t, errors.Is(err, types.ErrInvalidState))
}

func TestResolver_ReopenClearsComplaint(t *testing.T) {
	h := newHarness(t)
	g, n := h.setup(t, 3, 3)
	h.broadcast(t, g, n[0])
	h.broadcast(t, g, n[1])
	_, err := h.resolver.Complaint(g, n[0], n[1])
	require.NoError(t, err)
	_, ok := h.resolver.Pending(g)
	require.True(t, ok)

	h.dkg.Open(g, n)
	_, ok = h.resolver.Pending(g)
	require.False(t, ok)
}

func TestResolver_FlushRestore(t *testing.T) {
	h := newHarness(t)
	g, n := h.setup(t, 4, 3)
	for _, m := range n[:3] {
		h.broadcast(t, g, m)
	}
	_, err := h.resolver.ComplaintBadData(g, n[0], n[1])
	require.NoError(t, err)
	require.NoError(t, h.resolver.PreResponse(g, n[1], h.payloads[n[1]]))

	s, err := storage.NewMemStore()
	require.NoError(t, err)
	defer s.Close()
	b := s.NewBatch()
	h.resolver.Flush(b)
	require.NoError(t, s.Write(b))
	snap, err := s.Load()
	require.NoError(t, err)
	require.Len(t, snap.Complaints, 1)

	other := New(Config{Penalty: penalty}, h.clock, dkg.NewManager(h.clock, limit, nil), h.coord, h.ledger, h.registry, nil)
	other.Restore(snap)
	c, ok := other.Pending(g)
	require.True(t, ok)
	require.Equal(t, n[1], c.NodeToComplaint)
	require.Equal(t, n[0], c.FromNode)
	require.True(t, c.IsResponse)
	require.Equal(t, h.payloads[n[1]].VerificationVector, c.VerificationVector)

	h.dkg.Open(g, n[:3])
	b = s.NewBatch()
	h.resolver.Flush(b)
	require.NoError(t, s.Write(b))
	snap, err = s.Load()
	require.NoError(t, err)
	require.Empty(t, snap.Complaints)
}

func TestResolver_BadDataFromFinishedAccuser(t *testing.T) {
	h := newHarness(t)
	g, n := h.setup(t, 4, 3)
	for _, m := range n[:3] {
		h.broadcast(t, g, m)
	}
	require.NoError(t, h.dkg.Alright(g, n[0]))

	out, err := h.resolver.ComplaintBadData(g, n[0], n[1])
	require.NoError(t, err)
	require.Equal(t, ActionRejected, out.Action)
	require.Equal(t, ReasonAlreadySentAlright, out.Reason)
	_, ok := h.resolver.Pending(g)
	require.False(t, ok)
	require.Equal(t, 0, h.events.count(eventbus.EventComplaintSent))
}

func TestResolver_SelfComplaint(t *testing.T) {
	h := newHarness(t)
	g, n := h.setup(t, 4, 3)
	h.broadcast(t, g, n[0])

	_, err := h.resolver.Complaint(g, n[0], n[0])
	require.True(t, errors.Is(err, types.ErrInvalidState))
	_, err = h.resolver.ComplaintBadData(g, n[0], n[0])
	require.True(t, errors.Is(err, types.ErrInvalidState))
	_, ok := h.resolver.Pending(g)
	require.False(t, ok)
	require.Empty(t, h.events.reasons())
}

type brokenSlasher struct {
	calls int
}

func (b *brokenSlasher) ForceExitLocked(types.GroupID, types.NodeID) (*rotation.GroupResult, error) {
	b.calls++
	return nil, types.NewError(types.CodeInvalidState, "no rotation")
}

func TestResolver_FailedRotationDoesNotSlash(t *testing.T) {
	h := newHarness(t)
	g, n := h.setup(t, 4, 3)
	slasher := &brokenSlasher{}
	h.resolver = New(Config{Penalty: penalty}, h.clock, h.dkg, slasher, h.ledger, h.registry, h.events)
	for _, m := range n[:3] {
		h.broadcast(t, g, m)
	}
	out, err := h.resolver.Complaint(g, n[0], n[1])
	require.NoError(t, err)
	require.Equal(t, ActionOpened, out.Action)

	h.clock.Advance(limit)
	_, err = h.resolver.Complaint(g, n[0], n[1])
	require.True(t, errors.Is(err, types.ErrInvalidState))
	require.Equal(t, 1, slasher.calls)

	v, ok := h.ledger.Validator(owner)
	require.True(t, ok)
	require.Zero(t, v.Slashed)
	require.Equal(t, 0, h.events.count(eventbus.EventBadGuy))
	require.Equal(t, 0, h.events.count(eventbus.EventFailedDKG))
	c, ok := h.resolver.Pending(g)
	require.True(t, ok)
	require.Equal(t, n[1], c.NodeToComplaint)
}
