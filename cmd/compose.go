package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/kartoza/kartoza-video-composer/internal/models"
	"github.com/kartoza/kartoza-video-composer/internal/notify"
	"github.com/kartoza/kartoza-video-composer/internal/orchestrator"
	"github.com/kartoza/kartoza-video-composer/internal/tui"
)

var (
	composeBase           string
	composeBackground     string
	composePosition       string
	composeSize           int
	composeDuration       float64
	composeOwner          string
	composeBackgroundKind string
	composeProgress       bool
	composeJSON           bool
	composeNotify         bool
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Compose one personalized video",
	Long: `Overlay the base video as a circle onto a background and publish the result.

If composition fails at any stage the base video URL is returned instead.`,
	Example: `  kartoza-video-composer compose \
    --base https://cdn.example.com/talking.mp4 \
    --background https://capture.example.com/acme.png \
    --position bottom-right --size 300 --owner team-7`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}

		req := models.CompositionRequest{
			BaseVideoURL:    composeBase,
			BackgroundURL:   composeBackground,
			Position:        models.ParsePosition(composePosition),
			Size:            composeSize,
			DurationSeconds: composeDuration,
			OwnerScopeID:    composeOwner,
			BackgroundKind:  models.BackgroundKind(composeBackgroundKind),
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		var res models.CompositionResult
		if composeProgress {
			res, err = tui.RunCompose(ctx, func(ctx context.Context, hooks orchestrator.Hooks) models.CompositionResult {
				o, buildErr := newOrchestrator(ctx, cfg, logger, hooks)
				if buildErr != nil {
					return models.Failed(models.StageCheckingEngine, buildErr)
				}
				return o.ComposePersonalizedVideo(ctx, req)
			})
			if err != nil {
				return err
			}
		} else {
			o, buildErr := newOrchestrator(ctx, cfg, logger, orchestrator.Hooks{})
			if buildErr != nil {
				return buildErr
			}
			res = o.ComposePersonalizedVideo(ctx, req)
		}

		if composeJSON {
			data, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
		} else if !composeProgress {
			fmt.Println(tui.RenderResult(res))
		}

		if composeNotify {
			if err := notify.Result(res); err != nil {
				logger.Debug().Err(err).Msg("compose: desktop notification failed")
			}
		}

		if !res.Success {
			return fmt.Errorf("composition failed: %s", res.Error)
		}
		return nil
	},
}

func init() {
	composeCmd.Flags().StringVar(&composeBase, "base", "", "Base (talking head) video URL")
	composeCmd.Flags().StringVar(&composeBackground, "background", "", "Background screenshot or scrolling capture URL")
	composeCmd.Flags().StringVar(&composePosition, "position", string(models.PositionBottomRight), "Overlay corner: top-left, top-right, bottom-left, bottom-right")
	composeCmd.Flags().IntVar(&composeSize, "size", models.DefaultOverlaySize, "Overlay diameter in pixels")
	composeCmd.Flags().Float64Var(&composeDuration, "duration", models.DefaultDurationSeconds, "Output duration in seconds")
	composeCmd.Flags().StringVar(&composeOwner, "owner", "", "Owner scope used to namespace the published key")
	composeCmd.Flags().StringVar(&composeBackgroundKind, "background-kind", "", "Force background kind: image or video (default: detect)")
	composeCmd.Flags().BoolVar(&composeProgress, "progress", false, "Show a live progress view")
	composeCmd.Flags().BoolVar(&composeJSON, "json", false, "Output the result as JSON")
	composeCmd.Flags().BoolVar(&composeNotify, "notify", false, "Send a desktop notification when done")

	_ = composeCmd.MarkFlagRequired("base")
	_ = composeCmd.MarkFlagRequired("background")
}
