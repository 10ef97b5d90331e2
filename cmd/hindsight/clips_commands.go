package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hindsight/internal/api"
)

func newClipsCommand(ctx *commandContext) *cobra.Command {
	clipsCmd := &cobra.Command{
		Use:   "clips",
		Short: "Inspect the clip catalog",
	}

	clipsCmd.AddCommand(newClipsListCommand(ctx))
	clipsCmd.AddCommand(newClipsShowCommand(ctx))

	return clipsCmd
}

func newClipsListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List captured clips, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp api.ClipListResponse
			path := "/api/clips"
			if limit > 0 {
				path = fmt.Sprintf("%s?limit=%d", path, limit)
			}
			if err := ctx.getJSON(cmd.Context(), path, &resp); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(resp.Clips) == 0 {
				fmt.Fprintln(out, "No clips captured yet")
				return nil
			}

			rows := make([][]string, 0, len(resp.Clips))
			for _, clip := range resp.Clips {
				rows = append(rows, []string{
					clip.ID,
					clip.Title,
					clip.Status,
					fmt.Sprintf("%d", clip.FrameCount),
					formatBytes(clip.ArtifactBytes),
					clip.CreatedAt,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Title", "Status", "Frames", "Size", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of clips to list")
	return cmd
}

func newClipsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <clip-id>",
		Short: "Show one clip in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp api.ClipResponse
			if err := ctx.getJSON(cmd.Context(), "/api/clips/"+args[0], &resp); err != nil {
				return err
			}

			clip := resp.Clip
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:       %s\n", clip.ID)
			fmt.Fprintf(out, "Title:    %s\n", clip.Title)
			fmt.Fprintf(out, "Status:   %s\n", clip.Status)
			fmt.Fprintf(out, "Window:   %ds before / %ds after at %d fps\n", clip.BeforeSeconds, clip.AfterSeconds, clip.FPS)
			fmt.Fprintf(out, "Geometry: %dx%d\n", clip.FrameWidth, clip.FrameHeight)
			fmt.Fprintf(out, "Frames:   %d\n", clip.FrameCount)
			if clip.ArtifactPath != "" {
				fmt.Fprintf(out, "Artifact: %s (%s)\n", clip.ArtifactPath, formatBytes(clip.ArtifactBytes))
			}
			if clip.ErrorDetail != "" {
				fmt.Fprintf(out, "Error:    %s\n", clip.ErrorDetail)
			}
			fmt.Fprintf(out, "Created:  %s\n", clip.CreatedAt)
			fmt.Fprintf(out, "Updated:  %s\n", clip.UpdatedAt)
			return nil
		},
	}
}

func formatBytes(n int64) string {
	switch {
	case n <= 0:
		return "-"
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KiB", float64(n)/1024)
	case n < 1024*1024*1024:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1024*1024))
	default:
		return fmt.Sprintf("%.1f GiB", float64(n)/(1024*1024*1024))
	}
}
