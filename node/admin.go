package node

import (
	"github.com/annchain/schain-manager/types"
)

func (s *Service) RegisterNode(name string, owner uint64, space uint8) (*types.Node, error) {
	var n *types.Node
	err := s.mutate(func() error {
		var err error
		n, err = s.registry.Register(name, owner, space)
		return err
	})
	return n, s.done("register", err)
}

// SetMaintenance toggles maintenance of n. Nodes in maintenance keep their
// seats but are never picked as replacements.
func (s *Service) SetMaintenance(caller uint64, n types.NodeID, on bool) error {
	if err := s.Authorize(n, caller); err != nil {
		return s.done("maintenance", err)
	}
	err := s.mutate(func() error {
		return s.registry.SetMaintenance(n, on)
	})
	return s.done("maintenance", err)
}

// CreateGroup seats a new schain. With no explicit members, size nodes are
// drawn by the selector. The DKG channel opens right away.
func (s *Service) CreateGroup(name string, part uint8, members []types.NodeID, size int) (*types.Group, error) {
	gid := types.GroupIDFromName(name)
	var grp *types.Group
	err := s.withGroup(gid, func() error {
		if s.index.Exists(gid) {
			return types.NewError(types.CodeInvalidState, "schain %s already exists", name)
		}
		seated, err := s.seat(gid, part, members, size)
		if err != nil {
			return err
		}
		grp, err = s.index.CreateGroup(name, part, seated, s.clock.Now())
		if err != nil {
			s.unseat(seated, part)
			return err
		}
		s.dkg.Open(gid, seated)
		log().WithField("schain", name).WithField("members", seated).Info("schain created")
		return nil
	})
	return grp, s.done("create_group", err)
}

// RemoveGroup deletes schain g. Members get their capacity back; members
// that were Leaving and hold no other seat become Left.
func (s *Service) RemoveGroup(g types.GroupID) error {
	err := s.withGroup(g, func() error {
		grp, err := s.index.Group(g)
		if err != nil {
			return err
		}
		if err := s.index.DeleteGroup(g); err != nil {
			return err
		}
		s.coord.Forget(g)
		for _, m := range grp.Slots {
			if m.IsNone() {
				continue
			}
			s.registry.Release(m, grp.PartOfNode)
			if status, err := s.registry.Status(m); err == nil && status == types.NodeLeaving &&
				len(s.index.GroupsOf(m)) == 0 {
				if err := s.coord.CompleteExit(m); err != nil {
					log().WithError(err).WithField("node", m).Warn("exit not completed")
				}
			}
		}
		log().WithField("schain", grp.Name).Info("schain removed")
		return nil
	})
	return s.done("remove_group", err)
}

func (s *Service) seat(gid types.GroupID, part uint8, members []types.NodeID, size int) ([]types.NodeID, error) {
	if len(members) == 0 {
		if size <= 0 {
			return nil, types.NewError(types.CodeInvalidState, "schain needs at least one member")
		}
		picked := s.coord.Select(gid, part, size)
		if len(picked) < size {
			s.unseat(picked, part)
			return nil, types.NewError(types.CodeNotEligible, "only %d of %d nodes available", len(picked), size)
		}
		return picked, nil
	}
	var reserved []types.NodeID
	for _, m := range members {
		owner, err := s.registry.Owner(m)
		if err == nil && !s.staking.IsEligible(owner) {
			err = types.NewError(types.CodeNotEligible, "owner %d of node %s is not eligible", owner, m)
		}
		if err == nil {
			err = s.registry.Reserve(m, part)
		}
		if err != nil {
			s.unseat(reserved, part)
			return nil, err
		}
		reserved = append(reserved, m)
	}
	return reserved, nil
}

func (s *Service) unseat(nodes []types.NodeID, part uint8) {
	for _, n := range nodes {
		s.registry.Release(n, part)
	}
}
