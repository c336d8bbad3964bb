package node

import (
	"github.com/annchain/schain-manager/types"
)

// RotationHistory is what a node did across schains: the seats it left and
// the latest rotations that brought it in.
type RotationHistory struct {
	Node    types.NodeID          `json:"node"`
	Leaving *types.LeavingHistory `json:"leaving"`
	Joined  []*types.Rotation     `json:"joined"`
}

func (s *Service) GetNode(n types.NodeID) (*types.Node, error) {
	return s.registry.Get(n)
}

func (s *Service) Nodes() []*types.Node {
	return s.registry.Nodes()
}

func (s *Service) GetGroup(g types.GroupID) (*types.Group, error) {
	return s.index.Group(g)
}

func (s *Service) Groups() []types.GroupID {
	return s.index.Groups()
}

// GetGroupMembers lists the live members of g in position order.
func (s *Service) GetGroupMembers(g types.GroupID) ([]types.NodeID, error) {
	return s.index.Members(g)
}

func (s *Service) GroupsOf(n types.NodeID) []types.GroupID {
	return s.index.GroupsOf(n)
}

func (s *Service) GetRotation(g types.GroupID) (*types.Rotation, error) {
	return s.coord.Rotation(g)
}

func (s *Service) GetRotationHistory(n types.NodeID) (*RotationHistory, error) {
	if _, err := s.registry.Get(n); err != nil {
		return nil, err
	}
	return &RotationHistory{
		Node:    n,
		Leaving: s.coord.History(n),
		Joined:  s.coord.Joined(n),
	}, nil
}

func (s *Service) GetSession(g types.GroupID) (*types.Session, error) {
	return s.dkg.Session(g)
}

func (s *Service) GetComplaint(g types.GroupID) (*types.Complaint, bool) {
	return s.resolver.Pending(g)
}

// Snapshot exports the full state between operations.
func (s *Service) Snapshot() *types.Snapshot {
	s.state.Lock()
	defer s.state.Unlock()
	snap := &types.Snapshot{}
	s.registry.Export(snap)
	s.index.Export(snap)
	s.coord.Export(snap)
	s.dkg.Export(snap)
	s.resolver.Export(snap)
	return snap
}
