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
package eventbus

import (
	"time"

	"github.com/google/uuid"

	"github.com/annchain/schain-manager/types"
)

const (
	EventComplaintError EventType = iota + 1
	EventComplaintSent
	EventBadGuy
	EventNewGuy
	EventFailedDKG
	EventSuccessfulDKG
	EventBroadcastAndKeyShare
	EventAllDataReceived
	EventChannelOpened
	EventNodeRotated
	EventGroupRemoved
	EventNodeLeft
)

var eventTypeNames = map[EventType]string{
	EventComplaintError:       "ComplaintError",
	EventComplaintSent:        "ComplaintSent",
	EventBadGuy:               "BadGuy",
	EventNewGuy:               "NewGuy",
	EventFailedDKG:            "FailedDKG",
	EventSuccessfulDKG:        "SuccessfulDKG",
	EventBroadcastAndKeyShare: "BroadcastAndKeyShare",
	EventAllDataReceived:      "AllDataReceived",
	EventChannelOpened:        "ChannelOpened",
	EventNodeRotated:          "NodeRotated",
	EventGroupRemoved:         "GroupRemoved",
	EventNodeLeft:             "NodeLeft",
}

// EventTypeByName resolves the names used on the websocket API.
func EventTypeByName(name string) (EventType, bool) {
	for t, n := range eventTypeNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}

// Meta identifies one emitted event.
type Meta struct {
	ID   string    `json:"id"`
	Time time.Time `json:"time"`
}

func NewMeta(now time.Time) Meta {
	return Meta{ID: uuid.New().String(), Time: now}
}

// ComplaintErrorEvent reports a complaint that was rejected without failing
// the call.
type ComplaintErrorEvent struct {
	Meta
	Group  types.GroupID `json:"group"`
	From   types.NodeID  `json:"from"`
	To     types.NodeID  `json:"to"`
	Reason string        `json:"reason"`
}

func (e *ComplaintErrorEvent) GetEventType() EventType { return EventComplaintError }

type ComplaintSentEvent struct {
	Meta
	Group   types.GroupID `json:"group"`
	From    types.NodeID  `json:"from"`
	To      types.NodeID  `json:"to"`
	BadData bool          `json:"bad_data"`
}

func (e *ComplaintSentEvent) GetEventType() EventType { return EventComplaintSent }

type BadGuyEvent struct {
	Meta
	Group types.GroupID `json:"group"`
	Node  types.NodeID  `json:"node"`
}

func (e *BadGuyEvent) GetEventType() EventType { return EventBadGuy }

type NewGuyEvent struct {
	Meta
	Group    types.GroupID `json:"group"`
	Node     types.NodeID  `json:"node"`
	Position uint32        `json:"position"`
}

func (e *NewGuyEvent) GetEventType() EventType { return EventNewGuy }

type FailedDKGEvent struct {
	Meta
	Group types.GroupID `json:"group"`
	Round uint64        `json:"round"`
}

func (e *FailedDKGEvent) GetEventType() EventType { return EventFailedDKG }

type SuccessfulDKGEvent struct {
	Meta
	Group types.GroupID `json:"group"`
	Round uint64        `json:"round"`
}

func (e *SuccessfulDKGEvent) GetEventType() EventType { return EventSuccessfulDKG }

type BroadcastAndKeyShareEvent struct {
	Meta
	Group types.GroupID `json:"group"`
	Node  types.NodeID  `json:"node"`
	Round uint64        `json:"round"`
}

func (e *BroadcastAndKeyShareEvent) GetEventType() EventType { return EventBroadcastAndKeyShare }

type AllDataReceivedEvent struct {
	Meta
	Group types.GroupID `json:"group"`
	Node  types.NodeID  `json:"node"`
}

func (e *AllDataReceivedEvent) GetEventType() EventType { return EventAllDataReceived }

type ChannelOpenedEvent struct {
	Meta
	Group   types.GroupID  `json:"group"`
	Round   uint64         `json:"round"`
	Members []types.NodeID `json:"members"`
}

func (e *ChannelOpenedEvent) GetEventType() EventType { return EventChannelOpened }

type NodeRotatedEvent struct {
	Meta
	Group    types.GroupID `json:"group"`
	Leaving  types.NodeID  `json:"leaving"`
	New      types.NodeID  `json:"new"`
	Position uint32        `json:"position"`
	Counter  uint64        `json:"counter"`
}

func (e *NodeRotatedEvent) GetEventType() EventType { return EventNodeRotated }

type GroupRemovedEvent struct {
	Meta
	Group types.GroupID `json:"group"`
}

func (e *GroupRemovedEvent) GetEventType() EventType { return EventGroupRemoved }

type NodeLeftEvent struct {
	Meta
	Node types.NodeID `json:"node"`
}

func (e *NodeLeftEvent) GetEventType() EventType { return EventNodeLeft }
