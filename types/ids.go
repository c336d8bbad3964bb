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
	"bytes"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/crypto/sha3"
)

// GroupIDLength is the length of a schain id in bytes.
const GroupIDLength = 32

// NodeID is the stable index of a node in the registry.
type NodeID uint64

// NoNode marks an empty slot or an absent complaint target.
const NoNode = NodeID(math.MaxUint64)

func (n NodeID) IsNone() bool {
	return n == NoNode
}

func (n NodeID) String() string {
	if n == NoNode {
		return "none"
	}
	return strconv.FormatUint(uint64(n), 10)
}

// GroupID identifies a schain. It is the Keccak-256 hash of the schain name.
type GroupID [GroupIDLength]byte

// EmptyGroup is the zero id. It is used as a hole marker in inverse indexes.
var EmptyGroup GroupID

// GroupIDFromName hashes the schain name into its id.
func GroupIDFromName(name string) GroupID {
	var id GroupID
	copy(id[:], Keccak256([]byte(name)))
	return id
}

// HexToGroupID parses a hex encoded id, with or without 0x prefix.
func HexToGroupID(s string) (GroupID, error) {
	var id GroupID
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, err
	}
	if len(b) != GroupIDLength {
		return id, fmt.Errorf("group id must be %d bytes, got %d", GroupIDLength, len(b))
	}
	copy(id[:], b)
	return id, nil
}

func (g GroupID) Empty() bool {
	return g == EmptyGroup
}

func (g GroupID) Bytes() []byte { return g[:] }

// Hex converts the id to a 0x prefixed hex string.
func (g GroupID) Hex() string { return "0x" + hex.EncodeToString(g[:]) }

// TerminalString is a short form for console output.
func (g GroupID) TerminalString() string {
	return fmt.Sprintf("%x..%x", g[:3], g[len(g)-3:])
}

func (g GroupID) String() string {
	return g.Hex()[:10]
}

func (g GroupID) Cmp(o GroupID) int {
	return bytes.Compare(g[:], o[:])
}

// MarshalText keeps the full hex form in json.
func (g GroupID) MarshalText() ([]byte, error) {
	return []byte(g.Hex()), nil
}

func (g *GroupID) UnmarshalText(text []byte) error {
	id, err := HexToGroupID(string(text))
	if err != nil {
		return err
	}
	*g = id
	return nil
}

// Keccak256 calculates the legacy Keccak-256 hash of the concatenated data.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}
