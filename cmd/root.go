package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	debugMode  bool
	configPath string
)

// SetVersion sets the application version (called from main)
func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "kartoza-video-composer",
	Short: "Personalized outreach video composer",
	Long: `Kartoza Video Composer overlays a circular talking-head video onto a
prospect's website screenshot or scrolling capture.

It supports:
  - Local composition with ffmpeg, with the base video as a fallback
  - A remote execution service for hosts without ffmpeg
  - Publishing to Google Cloud Storage or a local directory
  - Periodic cleanup of orphaned work directories`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.config/kartoza-video-composer/config.json)")

	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(depsCmd)
	rootCmd.AddCommand(maskCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(versionCmd)
}
