package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"signframes/internal/api"
	"signframes/internal/daemonrun"
	"signframes/internal/logging"
	"signframes/internal/services"
)

const (
	formatAuto  = "auto"
	formatTable = "table"
	formatJSON  = "json"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var format string
	var logLevel string

	cmd := &cobra.Command{
		Use:   "render <text>...",
		Short: "Build a frame timeline for text without starting the server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			format = strings.ToLower(strings.TrimSpace(format))
			switch format {
			case formatAuto, formatTable, formatJSON:
			default:
				return fmt.Errorf("unsupported --format %q (want auto, table, or json)", format)
			}

			logger, err := logging.New(logging.Options{
				Level:       logLevel,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{"stderr"},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			pipeline, err := daemonrun.NewPipeline(cfg, logger)
			if err != nil {
				return err
			}
			defer pipeline.Close()

			runCtx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout())
			defer cancel()
			runCtx = services.WithRequestID(runCtx, "cli")

			resp, err := pipeline.Frames.Frames(runCtx, api.FramesRequest{Text: strings.Join(args, " ")})
			if err != nil {
				return fmt.Errorf("render failed (HTTP %d %s): %w", services.HTTPStatus(err), api.ErrorDetail(err), err)
			}

			out := cmd.OutOrStdout()
			if format == formatJSON || (format == formatAuto && !logging.IsTerminal(out)) {
				return writeJSON(cmd, resp)
			}
			printTimeline(out, resp)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", formatAuto, "Output format: auto, table, or json (auto uses json when stdout is not a terminal)")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level for pipeline diagnostics on stderr")
	return cmd
}

func printTimeline(out io.Writer, resp *api.FramesResponse) {
	fmt.Fprintf(out, "Text:         %s\n", resp.OriginalText)
	fmt.Fprintf(out, "Sign grammar: %s\n", resp.SignGrammar)

	rows := make([][]string, 0, len(resp.Frames))
	frames := 0
	for _, word := range resp.Frames {
		var duration float64
		for _, d := range word.Durations {
			duration += d
		}
		frames += len(word.Frames)
		rows = append(rows, []string{word.Word, strconv.Itoa(len(word.Frames)), formatSeconds(duration)})
	}
	fmt.Fprintln(out, tableSpec{
		headers: []string{"Word", "Frames", "Duration"},
		rows:    rows,
		aligns:  []columnAlignment{alignLeft, alignRight, alignRight},
		footer:  []string{"Total", strconv.Itoa(frames), formatSeconds(resp.TotalDuration)},
	}.render())
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + "s"
}
