package storage

import (
	"encoding/binary"

	"github.com/annchain/schain-manager/types"
)

var (
	prefixNode       = []byte("n/")
	prefixGroup      = []byte("g/")
	prefixNodeGroups = []byte("i/")
	prefixRotation   = []byte("r/")
	prefixHistory    = []byte("h/")
	prefixSession    = []byte("d/")
	prefixComplaint  = []byte("c/")

	keyVersion = []byte("m/version")
)

// SchemaVersion is bumped whenever a record layout changes.
const SchemaVersion uint64 = 1

func nodeKey(prefix []byte, n types.NodeID) []byte {
	k := make([]byte, len(prefix)+8)
	copy(k, prefix)
	binary.BigEndian.PutUint64(k[len(prefix):], uint64(n))
	return k
}

func groupKey(prefix []byte, g types.GroupID) []byte {
	k := make([]byte, len(prefix)+types.GroupIDLength)
	copy(k, prefix)
	copy(k[len(prefix):], g[:])
	return k
}
