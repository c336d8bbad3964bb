package core

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/annchain/schain-manager/types"
)

const topologyYaml = `
validators:
  - id: 1
    stake: 500
    enabled: true
nodes:
  - {name: a, owner: 1, space: 32}
  - {name: b, owner: 1, space: 32}
groups:
  - {name: s, part_of_node: 4, members: [a, b]}
`

func TestNewSchainNode_Bootstrap(t *testing.T) {
	dir, err := ioutil.TempDir("", "schain-core")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	file := filepath.Join(dir, "topology.yaml")
	require.NoError(t, ioutil.WriteFile(file, []byte(topologyYaml), 0644))

	viper.Reset()
	defer viper.Reset()
	viper.Set("db.name", "memory")
	viper.Set("topology.file", file)
	viper.Set("rpc.enabled", false)
	viper.Set("ws.enabled", false)

	n, err := NewSchainNode()
	require.NoError(t, err)
	require.Empty(t, n.Components)
	require.Len(t, n.Service.Nodes(), 2)
	members, err := n.Service.GetGroupMembers(types.GroupIDFromName("s"))
	require.NoError(t, err)
	require.Equal(t, []types.NodeID{0, 1}, members)
	n.Stop()
}

func TestNewSchainNode_UnknownDB(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	viper.Set("db.name", "mongo")
	viper.Set("ws.enabled", false)
	_, err := NewSchainNode()
	require.Error(t, err)
}
