package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"clipcast/internal/config"
	"clipcast/internal/transform"
)

func newSplitCommand(ctx *commandContext) *cobra.Command {
	var segmentSeconds int

	cmd := &cobra.Command{
		Use:   "split <source-file>",
		Short: "Pre-split a local video into rotation clips",
		Long: "Split cuts a local source video into portrait clips inside the " +
			"configured clips directory, ready for the rotation policy.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			source, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			seconds := segmentSeconds
			if seconds <= 0 {
				seconds = cfg.Transform.SegmentSeconds
			}

			transcoder := transform.NewFFmpeg(cfg.Transform, cfg.Paths.ClipsDir)
			clips, err := transcoder.Split(cmd.Context(), source, seconds)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(clips))
			for _, clip := range clips {
				rows = append(rows, []string{
					strconv.Itoa(clip.Index),
					fmt.Sprintf("%.0fs", clip.StartOffsetSeconds),
					fmt.Sprintf("%.0fs", clip.DurationSeconds),
					clip.Path,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"#", "START", "LENGTH", "PATH"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "Wrote %d clips to %s\n", len(clips), cfg.Paths.ClipsDir)
			return nil
		},
	}

	cmd.Flags().IntVar(&segmentSeconds, "segment-seconds", 0, "Override the configured segment length")
	return cmd
}
