package cli

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"schoolplus/internal/app"
	"schoolplus/internal/ui"
)

// NewPlayCmd runs the terminal host.
func NewPlayCmd(configPath, apiBaseURL *string) *cobra.Command {
	var logFile string
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the quiz and chat with the assistant in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), *configPath, *apiBaseURL, logFile)
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", "schoolplus.log", "where to write logs while the terminal UI is running")
	return cmd
}

func runPlay(ctx context.Context, configPath, apiBaseURL, logFile string) error {
	cfg, err := loadConfig(configPath, apiBaseURL)
	if err != nil {
		return err
	}

	// the UI owns the terminal, so logs go to a file
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	log.SetOutput(f)
	defer log.SetOutput(os.Stderr)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := ui.New(ui.Options{Presets: cfg.Chat.Presets, ExportDir: cfg.Chat.ExportDir})
	deps := tabDeps(cfg)
	deps.ChatOptions = append(deps.ChatOptions, app.WithClipboard(root.Clipboard()))
	tab := app.NewTab("terminal", root, deps)
	root.Bind(tab)

	log.Printf("terminal host started against %s", cfg.API.BaseURL)
	return root.Run(ctx)
}
