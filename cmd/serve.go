package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aouyang1/photogallery/api"
	"github.com/aouyang1/photogallery/store"
)

// newServeCmd creates a new command for serving the gallery
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long:  `Start the web server and the library managers that keep the photo registry in step with the photos directory.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Initialize database
			database, err := store.NewDatabase(cfg.DBPath())
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer database.Close()

			webServer, err := api.NewWebServer(ctx, database, cfg)
			if err != nil {
				return err
			}
			return webServer.Start(ctx)
		},
	}
}
