package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kartoza/kartoza-video-composer/internal/compositor"
	"github.com/kartoza/kartoza-video-composer/internal/tui"
)

var (
	previewAt    time.Duration
	previewWidth int
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
}

var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Preview a frame of a composed video in the terminal",
	Long: `Extract a frame from a video (or open an image) and draw it inline
on terminals with the Kitty graphics protocol. Other terminals get the path
of the extracted frame.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}

		source := args[0]
		framePath := source
		if !imageExtensions[strings.ToLower(filepath.Ext(source))] {
			tmp, err := os.MkdirTemp("", "composer-preview-")
			if err != nil {
				return err
			}
			framePath = filepath.Join(tmp, "frame.png")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := compositor.ExtractFrame(ctx, cfg.FFmpegPath, source, previewAt, framePath); err != nil {
				return err
			}
			logger.Debug().Str("frame", framePath).Msg("preview: extracted frame")
		}

		rendered, err := tui.RenderImageFile(framePath, previewWidth)
		if errors.Is(err, tui.ErrNoGraphics) {
			fmt.Printf("%s %s\n", tui.LabelStyle.Render("Frame:"), framePath)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Println(rendered)
		return nil
	},
}

func init() {
	previewCmd.Flags().DurationVar(&previewAt, "at", time.Second, "Timestamp of the frame to extract")
	previewCmd.Flags().IntVar(&previewWidth, "width", 80, "Preview width in terminal columns")
}
