package cli

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	apiBaseURL string
)

// Execute runs the CLI.
func Execute() error {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:          "schoolplus",
		Short:        "School platform client: quiz game and assistant chat",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&apiBaseURL, "api", os.Getenv("API_BASE_URL"), "base URL of the school platform API")
	cmd.AddCommand(NewPlayCmd(&configPath, &apiBaseURL))
	cmd.AddCommand(NewBridgeCmd(&configPath, &apiBaseURL))
	cmd.AddCommand(NewStubCmd(&configPath))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	return cmd
}
