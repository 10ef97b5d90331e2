package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"hindsight/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon pipeline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			var status api.DaemonStatus
			if err := ctx.getJSON(cmd.Context(), "/api/status", &status); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			lines := renderSectionHeader("Hindsight Daemon", colorize)

			running := statusError
			runningMsg := "stopped"
			if status.Running {
				running = statusOK
				runningMsg = fmt.Sprintf("pid %d", status.PID)
			}
			lines = append(lines, renderStatusLine("Daemon", running, runningMsg, colorize))

			bufferMsg := fmt.Sprintf("%d buffered", status.Buffer.BufferedFrames)
			if status.Buffer.Unbounded {
				bufferMsg += " (unbounded)"
			} else {
				bufferMsg += fmt.Sprintf(" / %d capacity", status.Buffer.CapacityFrames)
			}
			lines = append(lines, renderStatusLine("Buffer", statusInfo, bufferMsg, colorize))

			ingestMsg := fmt.Sprintf("%d frames ingested (%s)", status.Ingest.IngestedFrames, formatBytes(int64(status.Ingest.IngestedBytes)))
			if status.Ingest.LastTimestamp != "" {
				ingestMsg += ", last " + status.Ingest.LastTimestamp
			}
			lines = append(lines, renderStatusLine("Ingest", statusInfo, ingestMsg, colorize))

			sourceKind := statusWarn
			sourceMsg := status.SourceMode + " (detached)"
			if status.SourceActive {
				sourceKind = statusOK
				sourceMsg = status.SourceMode
			}
			lines = append(lines, renderStatusLine("Source", sourceKind, sourceMsg, colorize))

			if len(status.Cameras) > 0 {
				lines = append(lines, renderStatusLine("Cameras", statusOK, strings.Join(status.Cameras, ", "), colorize))
			}

			for _, dep := range status.Dependencies {
				kind := statusOK
				if !dep.Available {
					kind = statusError
				}
				lines = append(lines, renderStatusLine(dep.Name, kind, dep.Detail, colorize))
			}

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
}
