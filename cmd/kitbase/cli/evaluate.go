package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scr2em/kitbase-go/models"
)

var evalContext string

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <flag_key>",
	Short: "Evaluate a flag against a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ectx, err := parseContext(evalContext)
		if err != nil {
			return err
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		defer c.Close()

		ev, err := c.Evaluate(cmd.Context(), args[0], ectx)
		if err != nil {
			return err
		}

		fmt.Printf("Flag:    %s\n", ev.FlagKey)
		fmt.Printf("Enabled: %v\n", ev.Enabled)
		fmt.Printf("Value:   %s\n", valueString(ev.Value))
		fmt.Printf("Reason:  %s\n", ev.Reason)
		if ev.ErrorCode != "" {
			fmt.Printf("Error:   %s (%s)\n", ev.ErrorCode, ev.ErrorMessage)
		}
		return nil
	},
}

func parseContext(raw string) (models.EvaluationContext, error) {
	if raw == "" {
		return nil, nil
	}
	var ectx models.EvaluationContext
	if err := json.Unmarshal([]byte(raw), &ectx); err != nil {
		return nil, fmt.Errorf("invalid context JSON: %w", err)
	}
	return ectx, nil
}

func valueString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "null"
	}
	return string(raw)
}

func init() {
	evaluateCmd.Flags().StringVarP(&evalContext, "context", "c", "", `Evaluation context as JSON (e.g. '{"targetingKey":"user-1","plan":"premium"}')`)
	rootCmd.AddCommand(evaluateCmd)
}
