package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aouyang1/photogallery/api/client"
)

// newManifestCmd creates a command that fetches and prints the manifest
func newManifestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "manifest",
		Short: "Print the photo manifest",
		Long: `Fetch the photo manifest the gallery loads and print the urls each entry resolves to.
Only the server and manifest urls are used, so no library root is needed.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadClientConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			pc := client.NewPhotoClient(cfg.ServerURL, client.WithManifestURL(cfg.ManifestURL), client.WithCacheBust(true))
			photos, err := pc.FetchManifest(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "#\tTHUMB\tFULL\tALT")
			for i, p := range photos {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i, p.ThumbURL(), p.FullURL(), p.AltText())
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("Total: %d photos\n", len(photos))
			return nil
		},
	}
}
