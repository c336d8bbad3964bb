package groupindex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/annchain/schain-manager/storage"
	"github.com/annchain/schain-manager/types"
)

func ids(v ...uint64) []types.NodeID {
	out := make([]types.NodeID, len(v))
	for i, n := range v {
		out[i] = types.NodeID(n)
	}
	return out
}

func holeCount(t *testing.T, x *Index, g types.GroupID) int {
	slots, err := x.Slots(g)
	require.NoError(t, err)
	c := 0
	for _, n := range slots {
		if n.IsNone() {
			c++
		}
	}
	return c
}

func TestIndex_RemoveKeepsPositions(t *testing.T) {
	x := New()
	g, err := x.CreateGroup("alpha", 16, ids(0, 1, 2, 3), time.Now())
	require.NoError(t, err)

	removed, torn, err := x.RemoveFromGroup(g.ID, 1)
	require.NoError(t, err)
	require.False(t, torn)
	require.Equal(t, types.NodeID(1), removed)

	slots, _ := x.Slots(g.ID)
	require.Equal(t, []types.NodeID{0, types.NoNode, 2, 3}, slots)
	members, _ := x.Members(g.ID)
	require.Equal(t, ids(0, 2, 3), members)
	require.Empty(t, x.GroupsOf(1))

	// a second vacancy in a formed group is refused
	_, _, err = x.RemoveFromGroup(g.ID, 2)
	require.Equal(t, types.CodeInvalidState, types.CodeOf(err))
	require.Equal(t, 1, holeCount(t, x, g.ID))

	require.NoError(t, x.ReplaceAt(g.ID, 1, 9))
	pos, ok := x.PositionOf(g.ID, 9)
	require.True(t, ok)
	require.Equal(t, uint32(1), pos)
	require.Equal(t, 0, holeCount(t, x, g.ID))
	require.Equal(t, []types.GroupID{g.ID}, x.GroupsOf(9))
}

func TestIndex_AddReusesLowestHole(t *testing.T) {
	x := New()
	g, _ := x.CreateGroup("beta", 16, ids(0, 1, 2, 3), time.Now())

	_, _, err := x.RemoveFromGroup(g.ID, 2)
	require.NoError(t, err)
	require.NoError(t, x.Shrink(g.ID))
	_, _, err = x.RemoveFromGroup(g.ID, 0)
	require.NoError(t, err)
	require.NoError(t, x.Shrink(g.ID))

	grp, _ := x.Group(g.ID)
	require.Equal(t, uint32(2), grp.RequiredSize)
	require.Equal(t, []uint32{0, 2}, grp.Holes)

	pos, err := x.AddToGroup(g.ID, 7)
	require.NoError(t, err)
	require.Equal(t, uint32(0), pos)
	pos, err = x.AddToGroup(g.ID, 8)
	require.NoError(t, err)
	require.Equal(t, uint32(2), pos)
	pos, err = x.AddToGroup(g.ID, 9)
	require.NoError(t, err)
	require.Equal(t, uint32(4), pos)

	grp, _ = x.Group(g.ID)
	require.Equal(t, uint32(5), grp.RequiredSize)
	require.Equal(t, ids(7, 1, 8, 3, 9), grp.Slots)

	_, err = x.AddToGroup(g.ID, 9)
	require.Error(t, err)
}

func TestIndex_InverseIndexReusesHoles(t *testing.T) {
	x := New()
	a, _ := x.CreateGroup("a", 1, ids(5, 6), time.Now())
	b, _ := x.CreateGroup("b", 1, ids(5, 7), time.Now())
	c, _ := x.CreateGroup("c", 1, ids(5, 8), time.Now())
	require.Equal(t, []types.GroupID{a.ID, b.ID, c.ID}, x.GroupsOf(5))

	_, _, err := x.RemoveFromGroup(a.ID, 0)
	require.NoError(t, err)
	require.Equal(t, []types.GroupID{b.ID, c.ID}, x.GroupsOf(5))

	d, _ := x.CreateGroup("d", 1, ids(5), time.Now())
	require.Equal(t, []types.GroupID{d.ID, b.ID, c.ID}, x.GroupsOf(5))
}

func TestIndex_LastMemberTearsDown(t *testing.T) {
	x := New()
	g, _ := x.CreateGroup("solo", 1, ids(3), time.Now())
	removed, torn, err := x.RemoveFromGroup(g.ID, 0)
	require.NoError(t, err)
	require.True(t, torn)
	require.Equal(t, types.NodeID(3), removed)
	require.False(t, x.Exists(g.ID))
	require.Empty(t, x.GroupsOf(3))
	_, err = x.Members(g.ID)
	require.Equal(t, types.CodeNotFound, types.CodeOf(err))
}

func TestIndex_CreateValidation(t *testing.T) {
	x := New()
	_, err := x.CreateGroup("x", 1, nil, time.Now())
	require.Error(t, err)
	_, err = x.CreateGroup("x", 1, ids(1, 1), time.Now())
	require.Error(t, err)
	_, err = x.CreateGroup("x", 1, ids(1, 2), time.Now())
	require.NoError(t, err)
	_, err = x.CreateGroup("x", 1, ids(3), time.Now())
	require.Error(t, err)
}

func TestIndex_MembersCacheInvalidated(t *testing.T) {
	x := New()
	g, _ := x.CreateGroup("cached", 1, ids(1, 2, 3), time.Now())
	m, _ := x.Members(g.ID)
	require.Equal(t, ids(1, 2, 3), m)
	m[0] = 99

	x.RemoveFromGroup(g.ID, 0)
	x.ReplaceAt(g.ID, 0, 4)
	m, _ = x.Members(g.ID)
	require.Equal(t, ids(4, 2, 3), m)
}

func TestIndex_FlushRestore(t *testing.T) {
	x := New()
	a, _ := x.CreateGroup("a", 1, ids(1, 2, 3), time.Unix(100, 0))
	b, _ := x.CreateGroup("b", 1, ids(1), time.Unix(100, 0))
	x.RemoveFromGroup(a.ID, 1)
	x.RemoveFromGroup(b.ID, 0)

	s, err := storage.NewMemStore()
	require.NoError(t, err)
	defer s.Close()
	batch := s.NewBatch()
	x.Flush(batch)
	require.NoError(t, s.Write(batch))

	snap, err := s.Load()
	require.NoError(t, err)
	y := New()
	y.Restore(snap)

	require.Equal(t, []types.GroupID{a.ID}, y.Groups())
	slots, _ := y.Slots(a.ID)
	require.Equal(t, []types.NodeID{1, types.NoNode, 3}, slots)
	require.Equal(t, []types.GroupID{a.ID}, y.GroupsOf(1))
	require.Empty(t, y.GroupsOf(2))

	require.NoError(t, y.ReplaceAt(a.ID, 1, 2))
	require.Equal(t, []types.GroupID{a.ID}, y.GroupsOf(2))
}
