package cmd

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/annchain/schain-manager/node"
	"github.com/annchain/schain-manager/storage"
	"github.com/annchain/schain-manager/types"
)

func TestLogger(t *testing.T) {
	viper.Set("log.stdout", true)
	viper.Set("log.level", "debug")
	defer viper.Reset()
	initLogger()
	require.Equal(t, log.DebugLevel, log.GetLevel())
	log.Debug("Test Debug")
	log.Info("Test Info")
}

func TestSampleTopology(t *testing.T) {
	b, err := sampleTopology().Marshal()
	require.NoError(t, err)
	var back node.Topology
	require.NoError(t, yaml.Unmarshal(b, &back))
	require.Len(t, back.Nodes, 4)
	require.Equal(t, []string{"node-0", "node-3"}, back.Groups[1].Members)
}

func TestSnapshotInspect(t *testing.T) {
	dir, err := ioutil.TempDir("", "schain-cmd")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	file := filepath.Join(dir, "snap.bin")
	snap := &types.Snapshot{Nodes: []*types.Node{{ID: 3, Name: "n3"}}}
	require.NoError(t, storage.WriteSnapshotFile(file, snap))

	out := new(bytes.Buffer)
	snapshotInspectCmd.SetOutput(out)
	require.NoError(t, snapshotInspectCmd.RunE(snapshotInspectCmd, []string{file}))
	require.Contains(t, out.String(), "nodes=1 schains=0")
	require.Contains(t, out.String(), "n3")
}
