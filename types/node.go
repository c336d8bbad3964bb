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

type NodeStatus uint8

const (
	NodeActive NodeStatus = iota
	NodeLeaving
	NodeInMaintenance
	NodeLeft
)

var nodeStatusNames = map[NodeStatus]string{
	NodeActive:        "Active",
	NodeLeaving:       "Leaving",
	NodeInMaintenance: "InMaintenance",
	NodeLeft:          "Left",
}

func (s NodeStatus) String() string {
	if name, ok := nodeStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("NodeStatus(%d)", uint8(s))
}

func (s NodeStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *NodeStatus) UnmarshalText(text []byte) error {
	for k, v := range nodeStatusNames {
		if v == string(text) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown node status %q", string(text))
}

//msgp:tuple Node
type Node struct {
	ID    NodeID `json:"id"`
	Name  string `json:"name"`
	Owner uint64 `json:"owner"`
	// Status is only written by the registry.
	Status       NodeStatus `json:"status"`
	TotalSpace   uint8      `json:"total_space"`
	FreeSpace    uint8      `json:"free_space"`
	LastRotation time.Time  `json:"last_rotation"`
	RegisteredAt time.Time  `json:"registered_at"`
}

func (n *Node) Clone() *Node {
	c := *n
	return &c
}

func (n *Node) String() string {
	return fmt.Sprintf("node-%d(%s,%s,free=%d)", n.ID, n.Name, n.Status, n.FreeSpace)
}
