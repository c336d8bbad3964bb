package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/annchain/schain-manager/common/utilfuncs"
	"github.com/annchain/schain-manager/node"
	"github.com/annchain/schain-manager/staking"
)

var topologyCmd = &cobra.Command{
	Use:   "topology",
	Short: "Print a sample topology file",
	Long:  `Print a sample topology file for run --topology`,
	Run: func(cmd *cobra.Command, args []string) {
		b, err := sampleTopology().Marshal()
		utilfuncs.PanicIfError(err, "marshal topology")
		fmt.Print(string(b))
	},
}

func sampleTopology() *node.Topology {
	return &node.Topology{
		Validators: []staking.Validator{{ID: 1, Stake: 1000, Enabled: true}},
		Nodes: []node.NodeSpec{
			{Name: "node-0", Owner: 1, Space: 128},
			{Name: "node-1", Owner: 1, Space: 128},
			{Name: "node-2", Owner: 1, Space: 128},
			{Name: "node-3", Owner: 1, Space: 128},
		},
		Groups: []node.GroupSpec{
			{Name: "schain-a", PartOfNode: 16, Size: 3},
			{Name: "schain-b", PartOfNode: 16, Members: []string{"node-0", "node-3"}},
		},
	}
}

func init() {
	rootCmd.AddCommand(topologyCmd)
}
