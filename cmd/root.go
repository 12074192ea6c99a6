package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aouyang1/photogallery/config"
)

// Configuration flags
var (
	rootPath    string
	addr        string
	serverURL   string
	manifestURL string
	verbose     bool
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "photogallery",
		Short: "Photo gallery server with a grid and lightbox viewer",
		Long: `photogallery serves a library of photos as a thumbnail grid with a lightbox
viewer. The library lives under a root directory holding photos/, thumbs/ and
the photos.db registry, optionally mirrored from an S3 bucket.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
		},
	}

	// Define persistent flags that will be available for all commands
	rootCmd.PersistentFlags().StringVarP(&rootPath, "root", "r", "", "Set the GALLERY_ROOT_PATH (overrides environment variable)")
	rootCmd.PersistentFlags().StringVarP(&addr, "addr", "a", "", "Set the GALLERY_ADDR listen address (overrides environment variable)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server-url", "", "Set the GALLERY_SERVER_URL (overrides environment variable)")
	rootCmd.PersistentFlags().StringVarP(&manifestURL, "manifest-url", "m", "", "Set the GALLERY_MANIFEST_URL (overrides environment variable)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	// Add commands to root
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newManifestCmd())
	rootCmd.AddCommand(newRegisterCmd())

	return rootCmd
}

// LoadConfig loads configuration with respect to command line flags
func LoadConfig() (*config.Config, error) {
	applyFlags()
	return config.Load()
}

// LoadClientConfig is LoadConfig for commands that need no library root
func LoadClientConfig() (*config.Config, error) {
	applyFlags()
	return config.LoadClient()
}

func applyFlags() {
	// Set environment variables from flags if provided
	for env, v := range map[string]string{
		"GALLERY_ROOT_PATH":    rootPath,
		"GALLERY_ADDR":         addr,
		"GALLERY_SERVER_URL":   serverURL,
		"GALLERY_MANIFEST_URL": manifestURL,
	} {
		if v != "" {
			os.Setenv(env, v)
		}
	}
}
