package storage

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/tinylib/msgp/msgp"

	"github.com/annchain/schain-manager/types"
)

// Batch collects typed record writes. The first encoding error sticks and
// fails the final Store.Write.
type Batch struct {
	b   *leveldb.Batch
	err error
}

func (b *Batch) Len() int {
	return b.b.Len()
}

func (b *Batch) Err() error {
	return b.err
}

func (b *Batch) put(key []byte, m msgp.Marshaler) {
	if b.err != nil {
		return
	}
	data, err := m.MarshalMsg(nil)
	if err != nil {
		b.err = err
		return
	}
	b.b.Put(key, data)
}

func (b *Batch) PutNode(n *types.Node) {
	b.put(nodeKey(prefixNode, n.ID), n)
}

func (b *Batch) PutGroup(g *types.Group) {
	b.put(groupKey(prefixGroup, g.ID), g)
}

func (b *Batch) DeleteGroup(g types.GroupID) {
	b.b.Delete(groupKey(prefixGroup, g))
}

func (b *Batch) PutNodeGroups(ng *types.NodeGroups) {
	b.put(nodeKey(prefixNodeGroups, ng.Node), ng)
}

func (b *Batch) DeleteNodeGroups(n types.NodeID) {
	b.b.Delete(nodeKey(prefixNodeGroups, n))
}

func (b *Batch) PutRotation(r *types.Rotation) {
	b.put(groupKey(prefixRotation, r.Group), r)
}

func (b *Batch) DeleteRotation(g types.GroupID) {
	b.b.Delete(groupKey(prefixRotation, g))
}

func (b *Batch) PutHistory(h *types.LeavingHistory) {
	b.put(nodeKey(prefixHistory, h.Node), h)
}

func (b *Batch) PutSession(s *types.Session) {
	b.put(groupKey(prefixSession, s.Group), s)
}

func (b *Batch) DeleteSession(g types.GroupID) {
	b.b.Delete(groupKey(prefixSession, g))
}

func (b *Batch) PutComplaint(c *types.Complaint) {
	b.put(groupKey(prefixComplaint, c.Group), c)
}

func (b *Batch) DeleteComplaint(g types.GroupID) {
	b.b.Delete(groupKey(prefixComplaint, g))
}
