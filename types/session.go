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
	"time"
)

//go:generate msgp -io=false

// Session is the DKG channel of a group. Per-node flags are indexed by the
// position of the node in Members, the live member list at open time.
//msgp:tuple Session
type Session struct {
	Group            GroupID   `json:"group"`
	Round            uint64    `json:"round"`
	Active           bool      `json:"active"`
	Members          []NodeID  `json:"members"`
	StartedAt        time.Time `json:"started_at"`
	Broadcasted      []bool    `json:"broadcasted"`
	Completed        []bool    `json:"completed"`
	NumBroadcasted   uint32    `json:"num_broadcasted"`
	NumCompleted     uint32    `json:"num_completed"`
	HashedData       [][]byte  `json:"hashed_data"`
	StartAlrightAt   time.Time `json:"start_alright_at"`
	LastSuccessfulAt time.Time `json:"last_successful_at"`
}

// IndexOf returns the session index of node n, or -1.
func (s *Session) IndexOf(n NodeID) int {
	for i, m := range s.Members {
		if m == n {
			return i
		}
	}
	return -1
}

func (s *Session) Clone() *Session {
	c := *s
	c.Members = append([]NodeID(nil), s.Members...)
	c.Broadcasted = append([]bool(nil), s.Broadcasted...)
	c.Completed = append([]bool(nil), s.Completed...)
	c.HashedData = make([][]byte, len(s.HashedData))
	for i, h := range s.HashedData {
		c.HashedData[i] = append([]byte(nil), h...)
	}
	return &c
}

// Complaint is the single outstanding accusation of a group.
// NodeToComplaint is NoNode when nothing is pending.
//msgp:tuple Complaint
type Complaint struct {
	Group              GroupID   `json:"group"`
	NodeToComplaint    NodeID    `json:"node_to_complaint"`
	FromNode           NodeID    `json:"from_node"`
	StartedAt          time.Time `json:"started_at"`
	IsResponse         bool      `json:"is_response"`
	VerificationVector [][]byte  `json:"verification_vector"`
}

func (c *Complaint) Pending() bool {
	return !c.NodeToComplaint.IsNone()
}

func (c *Complaint) Clone() *Complaint {
	cc := *c
	cc.VerificationVector = make([][]byte, len(c.VerificationVector))
	for i, v := range c.VerificationVector {
		cc.VerificationVector[i] = append([]byte(nil), v...)
	}
	return &cc
}

// Snapshot is the full persisted state.
//msgp:tuple Snapshot
type Snapshot struct {
	Nodes      []*Node           `json:"nodes"`
	Groups     []*Group          `json:"groups"`
	NodeGroups []*NodeGroups     `json:"node_groups"`
	Rotations  []*Rotation       `json:"rotations"`
	Histories  []*LeavingHistory `json:"histories"`
	Sessions   []*Session        `json:"sessions"`
	Complaints []*Complaint      `json:"complaints"`
}
