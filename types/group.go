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
package types

import (
	"fmt"
	"time"
)

//go:generate msgp -io=false

// Group is a schain: an ordered slot array of member nodes. A position in
// Slots is stable for the life of the group; removed members leave NoNode.
//msgp:tuple Group
type Group struct {
	ID           GroupID   `json:"id"`
	Name         string    `json:"name"`
	Slots        []NodeID  `json:"slots"`
	Holes        []uint32  `json:"holes"`
	RequiredSize uint32    `json:"required_size"`
	PartOfNode   uint8     `json:"part_of_node"`
	CreatedAt    time.Time `json:"created_at"`
}

// LiveCount counts non-hole slots.
func (g *Group) LiveCount() int {
	c := 0
	for _, n := range g.Slots {
		if !n.IsNone() {
			c++
		}
	}
	return c
}

// Members returns live members in position order.
func (g *Group) Members() []NodeID {
	members := make([]NodeID, 0, len(g.Slots))
	for _, n := range g.Slots {
		if !n.IsNone() {
			members = append(members, n)
		}
	}
	return members
}

func (g *Group) Clone() *Group {
	c := *g
	c.Slots = append([]NodeID(nil), g.Slots...)
	c.Holes = append([]uint32(nil), g.Holes...)
	return &c
}

func (g *Group) String() string {
	return fmt.Sprintf("schain-%s(%s,%v)", g.ID.TerminalString(), g.Name, g.Slots)
}

// NodeGroups is the inverse index of one node: the groups it belongs to.
// EmptyGroup marks a hole.
//msgp:tuple NodeGroups
type NodeGroups struct {
	Node   NodeID    `json:"node"`
	Groups []GroupID `json:"groups"`
	Holes  []uint32  `json:"holes"`
}

func (ng *NodeGroups) Live() []GroupID {
	groups := make([]GroupID, 0, len(ng.Groups))
	for _, g := range ng.Groups {
		if !g.Empty() {
			groups = append(groups, g)
		}
	}
	return groups
}

func (ng *NodeGroups) Clone() *NodeGroups {
	c := *ng
	c.Groups = append([]GroupID(nil), ng.Groups...)
	c.Holes = append([]uint32(nil), ng.Holes...)
	return &c
}
