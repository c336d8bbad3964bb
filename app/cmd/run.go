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
package cmd

import (
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/annchain/schain-manager/common/goroutine"
	"github.com/annchain/schain-manager/common/utilfuncs"
	"github.com/annchain/schain-manager/core"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the schain manager",
	Long:  `Start the schain manager with its http and websocket endpoints`,
	Run: func(cmd *cobra.Command, args []string) {
		// init logs and other facilities before the node starts
		readConfig()
		initLogger()
		ensureFolder()
		goroutine.DumpDir = viper.GetString("dir.root")

		log.WithField("with id ", os.Getpid()).Info("Node Starting")
		node, err := core.NewSchainNode()
		utilfuncs.PanicIfError(err, "init node")
		node.Start()

		// prevent sudden stop. Do your clean up here
		var gracefulStop = make(chan os.Signal, 1)
		signal.Notify(gracefulStop, syscall.SIGTERM, syscall.SIGINT)

		sig := <-gracefulStop
		log.Warnf("caught sig: %+v", sig)
		log.Warn("Exiting... Please do no kill me")
		node.Stop()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("topology", "", "Topology yaml applied to a fresh store")
	runCmd.Flags().Int("rpc-port", 8000, "Http port")
	runCmd.Flags().Int("ws-port", 8002, "Websocket port")
	runCmd.Flags().String("db", "leveldb", "Store backend: leveldb or memory")

	_ = viper.BindPFlag("topology.file", runCmd.Flags().Lookup("topology"))
	_ = viper.BindPFlag("rpc.port", runCmd.Flags().Lookup("rpc-port"))
	_ = viper.BindPFlag("ws.port", runCmd.Flags().Lookup("ws-port"))
	_ = viper.BindPFlag("db.name", runCmd.Flags().Lookup("db"))
}
