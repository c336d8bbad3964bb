package types

import (
	"fmt"
	"time"
)

//go:generate msgp -io=false

// Rotation is the latest rotation of a group.
//msgp:tuple Rotation
type Rotation struct {
	Group           GroupID   `json:"group"`
	LeavingNode     NodeID    `json:"leaving_node"`
	NewNode         NodeID    `json:"new_node"`
	Position        uint32    `json:"position"`
	RotationCounter uint64    `json:"rotation_counter"`
	StartedAt       time.Time `json:"started_at"`
	FreezeUntil     time.Time `json:"freeze_until"`
	FinishedAt      time.Time `json:"finished_at"`
}

func (r *Rotation) Clone() *Rotation {
	c := *r
	return &c
}

func (r *Rotation) String() string {
	return fmt.Sprintf("rotation-%s#%d(%s->%s@%d)", r.Group.TerminalString(), r.RotationCounter,
		r.LeavingNode, r.NewNode, r.Position)
}

//msgp:tuple LeavingEntry
type LeavingEntry struct {
	Group      GroupID   `json:"group"`
	Position   uint32    `json:"position"`
	FinishedAt time.Time `json:"finished_at"`
}

// LeavingHistory lists every group a node has been rotated out of.
//msgp:tuple LeavingHistory
type LeavingHistory struct {
	Node    NodeID         `json:"node"`
	Entries []LeavingEntry `json:"entries"`
}

func (h *LeavingHistory) Clone() *LeavingHistory {
	c := *h
	c.Entries = append([]LeavingEntry(nil), h.Entries...)
	return &c
}
