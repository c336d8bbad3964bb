package storage

import (
	"io/ioutil"

	"github.com/golang/snappy"

	"github.com/annchain/schain-manager/types"
)

// EncodeSnapshot serializes a snapshot as snappy-compressed msgp.
func EncodeSnapshot(snap *types.Snapshot) ([]byte, error) {
	raw, err := snap.MarshalMsg(nil)
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, raw), nil
}

func DecodeSnapshot(data []byte) (*types.Snapshot, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, err
	}
	snap := &types.Snapshot{}
	if _, err := snap.UnmarshalMsg(raw); err != nil {
		return nil, err
	}
	return snap, nil
}

func WriteSnapshotFile(path string, snap *types.Snapshot) error {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, data, 0644)
}

func ReadSnapshotFile(path string) (*types.Snapshot, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeSnapshot(data)
}
