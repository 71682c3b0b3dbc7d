package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var snapshotContext string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Evaluate every flag for a context",
	RunE: func(cmd *cobra.Command, args []string) error {
		ectx, err := parseContext(snapshotContext)
		if err != nil {
			return err
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		defer c.Close()

		flags, err := c.Snapshot(cmd.Context(), ectx)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(flags, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotContext, "context", "c", "", "Evaluation context as JSON")
	rootCmd.AddCommand(snapshotCmd)
}
