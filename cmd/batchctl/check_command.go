package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify that yt-dlp and ffmpeg can be executed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			media := ctx.newFetcher(cfg, log.Logger)
			deps := media.Dependencies()

			tw := table.NewWriter()
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"Dependency", "Status", "Path"})
			tw.AppendRow(table.Row{"yt-dlp", status(deps.YTDLPFound), deps.YTDLPPath})
			tw.AppendRow(table.Row{"ffmpeg", status(deps.FFmpegFound), deps.FFmpegPath})
			fmt.Fprintln(cmd.OutOrStdout(), tw.Render())

			return media.CheckDependencies()
		},
	}
}

func status(found bool) string {
	if found {
		return "ok"
	}
	return "missing"
}
