package storage

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"
	lvlstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/tinylib/msgp/msgp"

	"github.com/annchain/schain-manager/types"
)

func sampleSnapshot() *types.Snapshot {
	now := time.Unix(1590000000, 0).UTC()
	g := types.GroupIDFromName("alpha")
	return &types.Snapshot{
		Nodes: []*types.Node{
			{ID: 0, Name: "n0", Owner: 7, Status: types.NodeLeft, TotalSpace: 128, FreeSpace: 128, RegisteredAt: now},
			{ID: 1, Name: "n1", Owner: 7, Status: types.NodeActive, TotalSpace: 128, FreeSpace: 96, LastRotation: now, RegisteredAt: now},
		},
		Groups: []*types.Group{
			{ID: g, Name: "alpha", Slots: []types.NodeID{1, types.NoNode}, Holes: []uint32{1}, RequiredSize: 1, PartOfNode: 32, CreatedAt: now},
		},
		NodeGroups: []*types.NodeGroups{
			{Node: 1, Groups: []types.GroupID{g}},
		},
		Rotations: []*types.Rotation{
			{Group: g, LeavingNode: 0, NewNode: types.NoNode, Position: 1, RotationCounter: 1,
				StartedAt: now, FreezeUntil: now.Add(12 * time.Hour), FinishedAt: now},
		},
		Histories: []*types.LeavingHistory{
			{Node: 0, Entries: []types.LeavingEntry{{Group: g, Position: 1, FinishedAt: now}}},
		},
		Sessions: []*types.Session{
			{Group: g, Round: 2, Active: true, Members: []types.NodeID{1}, StartedAt: now,
				Broadcasted: []bool{true}, Completed: []bool{false}, NumBroadcasted: 1,
				HashedData: [][]byte{types.Keccak256([]byte("data"))}, StartAlrightAt: now},
		},
		Complaints: []*types.Complaint{
			{Group: g, NodeToComplaint: types.NoNode, FromNode: types.NoNode},
		},
	}
}

func requireSameSnapshot(t *testing.T, want, got *types.Snapshot) {
	require.Len(t, got.Nodes, len(want.Nodes))
	for i := range want.Nodes {
		require.Equal(t, want.Nodes[i].ID, got.Nodes[i].ID)
		require.Equal(t, want.Nodes[i].Status, got.Nodes[i].Status)
		require.Equal(t, want.Nodes[i].FreeSpace, got.Nodes[i].FreeSpace)
		require.True(t, want.Nodes[i].RegisteredAt.Equal(got.Nodes[i].RegisteredAt))
	}
	require.Len(t, got.Groups, 1)
	require.Equal(t, want.Groups[0].Slots, got.Groups[0].Slots)
	require.Equal(t, want.Groups[0].Holes, got.Groups[0].Holes)
	require.Equal(t, want.Groups[0].RequiredSize, got.Groups[0].RequiredSize)
	require.Equal(t, want.NodeGroups[0].Groups, got.NodeGroups[0].Groups)
	require.Len(t, got.Rotations, 1)
	require.Equal(t, want.Rotations[0].RotationCounter, got.Rotations[0].RotationCounter)
	require.True(t, want.Rotations[0].FreezeUntil.Equal(got.Rotations[0].FreezeUntil))
	require.Equal(t, want.Histories[0].Entries[0].Position, got.Histories[0].Entries[0].Position)
	require.Equal(t, want.Sessions[0].Broadcasted, got.Sessions[0].Broadcasted)
	require.Equal(t, want.Sessions[0].HashedData, got.Sessions[0].HashedData)
	require.Equal(t, want.Sessions[0].Round, got.Sessions[0].Round)
	require.False(t, got.Complaints[0].Pending())
}

func TestStore_WriteAndLoad(t *testing.T) {
	s, err := NewMemStore()
	require.NoError(t, err)
	defer s.Close()

	snap := sampleSnapshot()
	require.NoError(t, s.Import(snap))

	loaded, err := s.Load()
	require.NoError(t, err)
	requireSameSnapshot(t, snap, loaded)

	b := s.NewBatch()
	b.DeleteGroup(snap.Groups[0].ID)
	b.DeleteRotation(snap.Groups[0].ID)
	b.DeleteSession(snap.Groups[0].ID)
	b.DeleteComplaint(snap.Groups[0].ID)
	b.DeleteNodeGroups(1)
	require.NoError(t, s.Write(b))

	loaded, err = s.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Nodes, 2)
	require.Empty(t, loaded.Groups)
	require.Empty(t, loaded.Rotations)
	require.Empty(t, loaded.Sessions)
	require.Empty(t, loaded.Complaints)
	require.Empty(t, loaded.NodeGroups)
}

func TestStore_ImportReplaces(t *testing.T) {
	s, err := NewMemStore()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Import(sampleSnapshot()))
	require.NoError(t, s.Import(&types.Snapshot{Nodes: []*types.Node{{ID: 5, Name: "n5"}}}))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Nodes, 1)
	require.Equal(t, types.NodeID(5), loaded.Nodes[0].ID)
	require.Empty(t, loaded.Groups)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	dir, err := ioutil.TempDir("", "schain-store")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "db")
	s, err := NewLevelStore(path, 16, 16)
	require.NoError(t, err)
	require.NoError(t, s.Import(sampleSnapshot()))
	require.NoError(t, s.Close())

	s, err = NewLevelStore(path, 16, 16)
	require.NoError(t, err)
	defer s.Close()
	loaded, err := s.Load()
	require.NoError(t, err)
	requireSameSnapshot(t, sampleSnapshot(), loaded)
}

func TestSnapshotFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "schain-snap")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "state.snap")
	snap := sampleSnapshot()
	require.NoError(t, WriteSnapshotFile(path, snap))
	got, err := ReadSnapshotFile(path)
	require.NoError(t, err)
	requireSameSnapshot(t, snap, got)

	_, err = DecodeSnapshot([]byte("definitely not snappy"))
	require.Error(t, err)
}

func TestStore_SchemaMismatchClosesDB(t *testing.T) {
	db, err := leveldb.Open(lvlstorage.NewMemStorage(), nil)
	require.NoError(t, err)
	require.NoError(t, db.Put(keyVersion, msgp.AppendUint64(nil, SchemaVersion+1), nil))

	s, err := wrap("memory", db)
	require.Error(t, err)
	require.Nil(t, s)
	_, err = db.Get(keyVersion, nil)
	require.Equal(t, leveldb.ErrClosed, err)
}
