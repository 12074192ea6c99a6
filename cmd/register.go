package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aouyang1/photogallery/api"
	"github.com/aouyang1/photogallery/api/client"
	"github.com/aouyang1/photogallery/api/models"
	"github.com/aouyang1/photogallery/util"
)

// newRegisterCmd creates a command that registers one photo with the server
func newRegisterCmd() *cobra.Command {
	var thumb, full, alt, title string

	cmd := &cobra.Command{
		Use:   "register <name>",
		Short: "Register a photo",
		Long: `Register a photo with a running server. Without --full the name is a file in
the photos directory and its thumbnail is picked up from thumbs/ when present.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			name := filepath.ToSlash(args[0])

			var req models.RegisterPhotoRequest
			if full != "" || thumb != "" {
				req = models.RegisterPhotoRequest{Name: name, Thumb: thumb, Full: full}
			} else {
				if !util.SupportedExt.Contains(filepath.Ext(name)) {
					return fmt.Errorf("unsupported file extension: %s", filepath.Ext(name))
				}
				if _, err := os.Stat(filepath.Join(cfg.PhotosDir(), filepath.FromSlash(name))); err != nil {
					return fmt.Errorf("photo file does not exist: %w", err)
				}
				req = api.Registration(cfg.RootPath, name)
			}
			if alt != "" {
				req.Alt = alt
			}
			if title != "" {
				req.Title = title
			}

			return client.NewPhotoClient(cfg.ServerURL).RegisterPhoto(cmd.Context(), req)
		},
	}

	cmd.Flags().StringVar(&thumb, "thumb", "", "Thumbnail url, relative or absolute")
	cmd.Flags().StringVar(&full, "full", "", "Full size url, relative or absolute")
	cmd.Flags().StringVar(&alt, "alt", "", "Alternative text")
	cmd.Flags().StringVar(&title, "title", "", "Title, used when no alt text is set")
	return cmd
}
