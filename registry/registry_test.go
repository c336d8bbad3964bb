package registry

import (
	"errors"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/annchain/schain-manager/storage"
	"github.com/annchain/schain-manager/types"
)

func TestRegistry_Lifecycle(t *testing.T) {
	r := New(clockwork.NewFakeClock())
	n, err := r.Register("n0", 1, 128)
	require.NoError(t, err)
	require.Equal(t, types.NodeID(0), n.ID)
	require.True(t, r.IsActive(n.ID))

	_, err = r.Register("n0", 1, 128)
	require.Equal(t, types.CodeInvalidState, types.CodeOf(err))

	require.NoError(t, r.SetMaintenance(n.ID, true))
	require.False(t, r.IsActive(n.ID))
	require.NoError(t, r.SetMaintenance(n.ID, false))

	require.Error(t, r.SetStatus(n.ID, types.NodeLeft))
	require.NoError(t, r.SetStatus(n.ID, types.NodeLeaving))
	require.NoError(t, r.SetStatus(n.ID, types.NodeLeaving))
	require.NoError(t, r.SetStatus(n.ID, types.NodeLeft))

	err = r.SetStatus(n.ID, types.NodeActive)
	require.True(t, errors.Is(err, types.ErrInvalidState))

	_, err = r.Get(42)
	require.Equal(t, types.CodeNotFound, types.CodeOf(err))
}

func TestRegistry_Capacity(t *testing.T) {
	r := New(clockwork.NewFakeClock())
	a, _ := r.Register("a", 1, 64)
	b, _ := r.Register("b", 2, 16)

	require.NoError(t, r.Reserve(a.ID, 32))
	require.True(t, r.HasFreeCapacity(a.ID, 32))
	require.False(t, r.HasFreeCapacity(a.ID, 33))
	require.Equal(t, types.CodeNotEligible, types.CodeOf(r.Reserve(b.ID, 32)))

	require.Equal(t, []uint64{32, 0}, r.Weights(32))
	require.Equal(t, []uint64{32, 16}, r.Weights(1))

	r.Release(a.ID, 200)
	node, _ := r.Get(a.ID)
	require.Equal(t, uint8(64), node.FreeSpace)

	require.NoError(t, r.SetMaintenance(b.ID, true))
	require.Equal(t, types.CodeNotEligible, types.CodeOf(r.Reserve(b.ID, 1)))
	require.Equal(t, []uint64{64, 0}, r.Weights(1))
}

func TestRegistry_FlushRestore(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := New(clock)
	r.Register("a", 1, 64)
	r.Register("b", 2, 64)
	r.Touch(1, clock.Now())

	s, err := storage.NewMemStore()
	require.NoError(t, err)
	defer s.Close()
	b := s.NewBatch()
	r.Flush(b)
	require.Equal(t, 2, b.Len())
	require.NoError(t, s.Write(b))

	b = s.NewBatch()
	r.Flush(b)
	require.Equal(t, 0, b.Len())

	snap, err := s.Load()
	require.NoError(t, err)
	r2 := New(clock)
	r2.Restore(snap)
	require.Len(t, r2.Nodes(), 2)
	c, err := r2.Register("c", 3, 64)
	require.NoError(t, err)
	require.Equal(t, types.NodeID(2), c.ID)
}

func TestRegistry_DuplicateNameAfterRestore(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := New(clock)
	_, err := r.Register("a", 1, 64)
	require.NoError(t, err)
	_, err = r.Register("a", 2, 64)
	require.True(t, errors.Is(err, types.ErrInvalidState))

	snap := &types.Snapshot{}
	r.Export(snap)
	r2 := New(clock)
	r2.Restore(snap)
	_, err = r2.Register("a", 1, 64)
	require.True(t, errors.Is(err, types.ErrInvalidState))
	_, err = r2.Register("b", 1, 64)
	require.NoError(t, err)
}
