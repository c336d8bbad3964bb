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
package storage

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	lvlstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
	"github.com/tinylib/msgp/msgp"

	"github.com/annchain/schain-manager/types"
)

const (
	minCache   = 16
	minHandles = 16
)

// Store keeps every schain record in one leveldb instance.
type Store struct {
	path string
	db   *leveldb.DB

	quitLock sync.Mutex
	closed   bool
}

// NewLevelStore opens (or creates) a leveldb store at path. cache is in MiB.
func NewLevelStore(path string, cache int, handles int) (*Store, error) {
	if cache < minCache {
		cache = minCache
	}
	if handles < minHandles {
		handles = minHandles
	}
	log := logrus.WithField("path", path)
	log.WithField("cache", cache).WithField("handles", handles).Info("allocated cache and file handles")

	db, err := leveldb.OpenFile(path, &opt.Options{
		OpenFilesCacheCapacity: handles,
		BlockCacheCapacity:     cache / 2 * opt.MiB,
		WriteBuffer:            cache / 4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	})
	if _, corrupted := err.(*errors.ErrCorrupted); corrupted {
		log.WithError(err).Warn("store corrupted, recovering")
		db, err = leveldb.RecoverFile(path, nil)
	}
	if err != nil {
		return nil, err
	}
	return wrap(path, db)
}

// NewMemStore returns a store backed by leveldb's in-memory storage.
func NewMemStore() (*Store, error) {
	db, err := leveldb.Open(lvlstorage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return wrap("memory", db)
}

// wrap takes ownership of db and closes it when the schema check fails.
func wrap(path string, db *leveldb.DB) (*Store, error) {
	s := &Store{path: path, db: db}
	if err := s.checkVersion(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) checkVersion() error {
	v, err := s.db.Get(keyVersion, nil)
	if err == leveldb.ErrNotFound {
		return s.db.Put(keyVersion, msgp.AppendUint64(nil, SchemaVersion), nil)
	}
	if err != nil {
		return err
	}
	version, _, err := msgp.ReadUint64Bytes(v)
	if err != nil {
		return fmt.Errorf("bad schema version record: %v", err)
	}
	if version != SchemaVersion {
		return fmt.Errorf("store schema version %d, expected %d", version, SchemaVersion)
	}
	return nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	s.quitLock.Lock()
	defer s.quitLock.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) NewBatch() *Batch {
	return &Batch{b: new(leveldb.Batch)}
}

// Write commits the batch atomically. Empty batches are skipped.
func (s *Store) Write(b *Batch) error {
	if b.err != nil {
		return b.err
	}
	if b.Len() == 0 {
		return nil
	}
	return s.db.Write(b.b, &opt.WriteOptions{Sync: true})
}

// Load reads every record into a snapshot.
func (s *Store) Load() (*types.Snapshot, error) {
	snap := &types.Snapshot{}
	err := s.scan(prefixNode, func(v []byte) error {
		n := &types.Node{}
		if _, err := n.UnmarshalMsg(v); err != nil {
			return err
		}
		snap.Nodes = append(snap.Nodes, n)
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = s.scan(prefixGroup, func(v []byte) error {
		g := &types.Group{}
		if _, err := g.UnmarshalMsg(v); err != nil {
			return err
		}
		snap.Groups = append(snap.Groups, g)
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = s.scan(prefixNodeGroups, func(v []byte) error {
		ng := &types.NodeGroups{}
		if _, err := ng.UnmarshalMsg(v); err != nil {
			return err
		}
		snap.NodeGroups = append(snap.NodeGroups, ng)
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = s.scan(prefixRotation, func(v []byte) error {
		r := &types.Rotation{}
		if _, err := r.UnmarshalMsg(v); err != nil {
			return err
		}
		snap.Rotations = append(snap.Rotations, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = s.scan(prefixHistory, func(v []byte) error {
		h := &types.LeavingHistory{}
		if _, err := h.UnmarshalMsg(v); err != nil {
			return err
		}
		snap.Histories = append(snap.Histories, h)
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = s.scan(prefixSession, func(v []byte) error {
		d := &types.Session{}
		if _, err := d.UnmarshalMsg(v); err != nil {
			return err
		}
		snap.Sessions = append(snap.Sessions, d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = s.scan(prefixComplaint, func(v []byte) error {
		c := &types.Complaint{}
		if _, err := c.UnmarshalMsg(v); err != nil {
			return err
		}
		snap.Complaints = append(snap.Complaints, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Store) scan(prefix []byte, fn func(v []byte) error) error {
	it := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer it.Release()
	for it.Next() {
		if err := fn(it.Value()); err != nil {
			return fmt.Errorf("decode %q: %v", it.Key(), err)
		}
	}
	return it.Error()
}

// Import replaces the store content with snap in a single batch.
func (s *Store) Import(snap *types.Snapshot) error {
	b := s.NewBatch()
	for _, prefix := range [][]byte{prefixNode, prefixGroup, prefixNodeGroups, prefixRotation,
		prefixHistory, prefixSession, prefixComplaint} {
		it := s.db.NewIterator(util.BytesPrefix(prefix), nil)
		for it.Next() {
			b.b.Delete(append([]byte(nil), it.Key()...))
		}
		it.Release()
		if err := it.Error(); err != nil {
			return err
		}
	}
	for _, n := range snap.Nodes {
		b.PutNode(n)
	}
	for _, g := range snap.Groups {
		b.PutGroup(g)
	}
	for _, ng := range snap.NodeGroups {
		b.PutNodeGroups(ng)
	}
	for _, r := range snap.Rotations {
		b.PutRotation(r)
	}
	for _, h := range snap.Histories {
		b.PutHistory(h)
	}
	for _, d := range snap.Sessions {
		b.PutSession(d)
	}
	for _, c := range snap.Complaints {
		b.PutComplaint(c)
	}
	if b.err != nil {
		return b.err
	}
	return s.db.Write(b.b, &opt.WriteOptions{Sync: true})
}
