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

// Package core assembles the schain manager process from viper settings.
package core

import (
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/annchain/schain-manager/common/files"
	"github.com/annchain/schain-manager/eventbus"
	"github.com/annchain/schain-manager/node"
	"github.com/annchain/schain-manager/rpc"
	"github.com/annchain/schain-manager/rpc/wserver"
	"github.com/annchain/schain-manager/staking"
	"github.com/annchain/schain-manager/storage"
)

type Component interface {
	Start()
	Stop()
	// Get the component name
	Name() string
}

// SchainNode owns the service, its store and the network components.
type SchainNode struct {
	Service    *node.Service
	Events     *node.EventLogger
	Store      *storage.Store
	Ledger     *staking.Ledger
	Components []Component
}

// OpenStore opens the store selected by db.name.
func OpenStore() (*storage.Store, error) {
	setDefaults()
	switch viper.GetString("db.name") {
	case "memory":
		return storage.NewMemStore()
	case "leveldb", "":
		path := files.FixPrefixPath(viper.GetString("dir.root"), viper.GetString("dir.data"))
		if err := files.MkDirIfNotExists(path); err != nil {
			return nil, err
		}
		return storage.NewLevelStore(path, viper.GetInt("leveldb.cache"), viper.GetInt("leveldb.handles"))
	default:
		return nil, fmt.Errorf("unknown db.name %q", viper.GetString("db.name"))
	}
}

func setDefaults() {
	viper.SetDefault("db.name", "leveldb")
	viper.SetDefault("dir.data", "data")
	viper.SetDefault("leveldb.cache", 16)
	viper.SetDefault("leveldb.handles", 16)
	viper.SetDefault("rpc.enabled", true)
	viper.SetDefault("rpc.port", 8000)
	viper.SetDefault("ws.enabled", true)
	viper.SetDefault("ws.port", 8002)
}

// NewSchainNode builds everything but starts nothing.
func NewSchainNode() (*SchainNode, error) {
	setDefaults()
	cfg := node.ConfigFromViper()

	n := &SchainNode{
		Events: node.NewEventLogger(),
		Ledger: staking.NewLedger(cfg.MinStake),
	}
	var topology *node.Topology
	if file := viper.GetString("topology.file"); file != "" {
		t, err := node.LoadTopology(file)
		if err != nil {
			return nil, err
		}
		t.ApplyValidators(n.Ledger)
		topology = t
	}

	bus := &eventbus.DefaultEventBus{}
	bus.InitDefault()
	bus.ListenToAll(n.Events)
	var ws *wserver.Server
	if viper.GetBool("ws.enabled") {
		ws = wserver.NewServer(viper.GetInt("ws.port"))
		bus.ListenToAll(ws)
	}
	bus.Build()

	store, err := OpenStore()
	if err != nil {
		return nil, err
	}
	n.Store = store
	n.Service, err = node.NewService(cfg, clockwork.NewRealClock(), store, n.Ledger, bus)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if topology != nil {
		if err := n.Service.Bootstrap(topology); err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	if viper.GetBool("rpc.enabled") {
		srv := &rpc.RpcServer{
			Controller: &rpc.RpcController{Service: n.Service, Events: n.Events},
			Port:       viper.GetInt("rpc.port"),
		}
		srv.InitDefault()
		n.Components = append(n.Components, srv)
	}
	if ws != nil {
		n.Components = append(n.Components, ws)
	}
	return n, nil
}

func (n *SchainNode) Start() {
	for _, component := range n.Components {
		logrus.Infof("Starting %s", component.Name())
		component.Start()
		logrus.Infof("Started: %s", component.Name())
	}
	logrus.Info("Node Started")
}

func (n *SchainNode) Stop() {
	for i := len(n.Components) - 1; i >= 0; i-- {
		comp := n.Components[i]
		logrus.Infof("Stopping %s", comp.Name())
		comp.Stop()
		logrus.Infof("Stopped: %s", comp.Name())
	}
	if err := n.Store.Close(); err != nil {
		logrus.WithError(err).Error("close store")
	}
	logrus.Info("Node Stopped")
}
