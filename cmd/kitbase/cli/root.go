package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/scr2em/kitbase-go/client"
	"github.com/scr2em/kitbase-go/config"
)

var (
	serverURL string
	apiKey    string
	local     bool
	streaming bool
)

var rootCmd = &cobra.Command{
	Use:   "kitbase",
	Short: "Evaluate and watch kitbase feature flags",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Flags API base URL (default from KITBASE_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Environment credential (default from KITBASE_API_KEY)")
	rootCmd.PersistentFlags().BoolVar(&local, "local", false, "Evaluate locally against a synced configuration")
	rootCmd.PersistentFlags().BoolVar(&streaming, "streaming", false, "Use the server-push channel instead of polling")
}

func Execute() error {
	return rootCmd.Execute()
}

// newClient builds an SDK client from env config plus command-line overrides.
func newClient(extra ...client.Option) (*client.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if serverURL != "" {
		cfg.BaseURL = serverURL
	}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}

	opts := []client.Option{client.WithRequestTimeout(10 * time.Second)}
	if local {
		opts = append(opts, client.WithLocalEvaluation())
	}
	if streaming {
		opts = append(opts, client.WithStreaming())
	}
	opts = append(opts, extra...)

	return client.New(cfg, opts...)
}
