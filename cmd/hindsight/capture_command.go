package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hindsight/internal/api"
)

func newCaptureCommand(ctx *commandContext) *cobra.Command {
	var req api.CaptureRequest

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Trigger a clip extraction",
		Long: "Capture slices the requested seconds of history from before the trigger,\n" +
			"waits for the after-window to fill, and muxes the result into an MP4 in\n" +
			"the clips directory. The command blocks until the clip completes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp api.ClipResponse
			if err := ctx.postJSON(cmd.Context(), "/api/clips", req, &resp); err != nil {
				return err
			}

			clip := resp.Clip
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Clip %s (%s) captured: %d frames\n", clip.ID, clip.Title, clip.FrameCount)
			if clip.ArtifactPath != "" {
				fmt.Fprintf(out, "Saved to %s\n", clip.ArtifactPath)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&req.BeforeSeconds, "before", "b", 5, "Seconds of history before the trigger")
	cmd.Flags().IntVarP(&req.AfterSeconds, "after", "a", 2, "Seconds to keep recording after the trigger")
	cmd.Flags().StringVarP(&req.Title, "title", "t", "", "Clip title (defaults to a timestamp)")
	cmd.Flags().IntVar(&req.FPS, "fps", 0, "Frame rate override for the muxed clip")
	return cmd
}
