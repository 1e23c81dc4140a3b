package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"weibograb/pkg/archiver"
	"weibograb/pkg/logger"
	"weibograb/pkg/media"
	"weibograb/pkg/record"
	"weibograb/pkg/tasks"
	"weibograb/pkg/ui"
	"weibograb/pkg/weibo"
)

var (
	runAll             bool
	runOverwritePics   bool
	runOverwriteVideos bool
	runOutputDir       string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process queued post URLs",
	Long: `Process the task queue: resolve each pending post, download its
images and videos, and append a row to today's record file.

Each task succeeds or fails on its own; a failed post is marked in the
queue with the reason and the run moves on.`,
	Example: `  # Process pending tasks
  weibograb run

  # Retry everything, including completed and failed tasks
  weibograb run --all

  # Re-download media even when the files already exist
  weibograb run --overwrite-pics --overwrite-videos`,
	Args: cobra.NoArgs,
	RunE: runArchive,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runAll, "all", false, "process every task regardless of status")
	runCmd.Flags().BoolVar(&runOverwritePics, "overwrite-pics", false, "re-download images that already exist")
	runCmd.Flags().BoolVar(&runOverwriteVideos, "overwrite-videos", false, "re-download videos that already exist")
	runCmd.Flags().StringVarP(&runOutputDir, "output", "o", "", "output base directory")
}

func runArchive(cmd *cobra.Command, args []string) error {
	flags := map[string]interface{}{}
	if cmd.Flags().Changed("overwrite-pics") {
		flags["overwrite-pics"] = runOverwritePics
	}
	if cmd.Flags().Changed("overwrite-videos") {
		flags["overwrite-videos"] = runOverwriteVideos
	}
	if runOutputDir != "" {
		flags["output"] = runOutputDir
	}
	cfg, err := loadConfig(flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		return err
	}

	queue, err := tasks.NewQueue(&cfg.Tasks, log)
	if err != nil {
		ui.PrintError("Failed to open task queue", err.Error())
		return err
	}
	defer queue.Close()

	cookie, userAgent := sessionCookie(cfg)
	client := weibo.NewClient(cfg.Download.APITimeout, log)
	if cookie != "" {
		client.SetCookie(cookie)
	} else {
		ui.PrintWarning("No session cookie configured; private or restricted posts will not resolve")
	}
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}

	fetcher, err := media.NewFetcher(&cfg.Download, cfg.Output.BaseDirectory, userAgent, log)
	if err != nil {
		ui.PrintError("Failed to initialize media fetcher", err.Error())
		return err
	}

	resolver := weibo.NewResolver(client, log)
	normalizer := record.NewNormalizer(fetcher, log)
	store := record.NewStore(cfg.Output.BaseDirectory, log)

	a := archiver.New(queue, resolver, normalizer, store, cfg.Output.BaseDirectory, log)

	ui.PrintInfo("Output directory", cfg.Output.BaseDirectory)
	ui.PrintInfo("Task queue", cfg.Tasks.File)

	result, err := a.Run(runAll, record.Options{
		OverwritePics:   cfg.Download.OverwritePics,
		OverwriteVideos: cfg.Download.OverwriteVideos,
	})
	if err != nil {
		ui.PrintError("Run failed", err.Error())
		return err
	}

	if result.Processed == 0 {
		ui.PrintHighlight("Nothing to do; the queue has no pending tasks")
		return nil
	}

	summary := fmt.Sprintf("Processed %d task(s): %d archived, %d failed",
		result.Processed, result.Succeeded, result.Failed)
	if result.Failed > 0 {
		ui.PrintWarning(summary)
	} else {
		ui.PrintSuccess(summary)
	}
	return nil
}
