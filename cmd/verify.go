package cmd

import (
	"errors"
	"fmt"
	"os"

	"StoryVault/snapshot"

	"github.com/spf13/cobra"
)

var errInvalidSnapshot = errors.New("snapshot failed integrity check")

var verifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Check the integrity digest of an exported snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		snap, err := snapshot.Decode(f)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !snap.Verify() {
			fmt.Fprintf(out, "INVALID %s (%s, version %s)\n", args[0], snap.Type, snap.Version)
			return errInvalidSnapshot
		}
		fmt.Fprintf(out, "OK %s (%s, version %s, %d messages, %d swipes, integrity %s)\n",
			args[0], snap.Type, snap.Version, len(snap.Data.Messages), len(snap.Data.Swipes), snap.Integrity)
		return nil
	},
}
