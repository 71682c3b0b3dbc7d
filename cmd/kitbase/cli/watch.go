package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scr2em/kitbase-go/client"
	"github.com/scr2em/kitbase-go/models"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow configuration changes until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(client.WithLocalEvaluation())
		if err != nil {
			return err
		}
		defer c.Close()

		c.OnConfigurationChanged(func(cfg *models.Configuration) {
			fmt.Printf("configuration changed: etag=%s flags=%d segments=%d\n",
				cfg.ETag, len(cfg.Flags), len(cfg.Segments))
		})
		c.OnError(func(err error) {
			fmt.Fprintln(os.Stderr, "sync error:", err)
		})

		if err := c.Initialize(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("watching for configuration changes, Ctrl-C to stop")

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sig:
		case <-cmd.Context().Done():
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
