package cmd

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/annchain/schain-manager/core"
	"github.com/annchain/schain-manager/storage"
	"github.com/annchain/schain-manager/types"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Export, import or inspect state snapshots",
}

var snapshotExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the store content to file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		readConfig()
		initLogger()
		store, err := core.OpenStore()
		if err != nil {
			return err
		}
		defer store.Close()
		snap, err := store.Load()
		if err != nil {
			return err
		}
		if err := storage.WriteSnapshotFile(args[0], snap); err != nil {
			return err
		}
		logrus.WithField("file", args[0]).WithField("nodes", len(snap.Nodes)).Info("snapshot exported")
		return nil
	},
}

var snapshotImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Replace the store content with file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		readConfig()
		initLogger()
		snap, err := storage.ReadSnapshotFile(args[0])
		if err != nil {
			return err
		}
		store, err := core.OpenStore()
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Import(snap); err != nil {
			return err
		}
		logrus.WithField("file", args[0]).WithField("nodes", len(snap.Nodes)).Info("snapshot imported")
		return nil
	},
}

var snapshotInspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Dump a snapshot file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := storage.ReadSnapshotFile(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), summary(snap))
		spew.Fdump(cmd.OutOrStdout(), snap)
		return nil
	},
}

func summary(snap *types.Snapshot) string {
	return fmt.Sprintf("nodes=%d schains=%d rotations=%d histories=%d sessions=%d complaints=%d",
		len(snap.Nodes), len(snap.Groups), len(snap.Rotations), len(snap.Histories),
		len(snap.Sessions), len(snap.Complaints))
}

func init() {
	snapshotCmd.AddCommand(snapshotExportCmd, snapshotImportCmd, snapshotInspectCmd)
	rootCmd.AddCommand(snapshotCmd)
}
