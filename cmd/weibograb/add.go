package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"weibograb/pkg/logger"
	"weibograb/pkg/tasks"
	"weibograb/pkg/ui"
	"weibograb/pkg/weibo"
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add <url>...",
	Short: "Queue post URLs for archival",
	Long: `Queue one or more Weibo post URLs. URLs must be in the web form
https://weibo.com/<user id>/<post id>. Adding a URL that is already
queued is a no-op.`,
	Example: `  weibograb add https://weibo.com/1234567890/O9XkqFeGq

  # Several at once
  weibograb add https://weibo.com/111/aaa https://weibo.com/222/bbb`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
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

	added := 0
	for _, url := range args {
		if _, _, ok := weibo.ExtractIDs(url); !ok {
			ui.PrintWarning("Skipping unrecognized URL", url)
			continue
		}
		if existing, err := queue.Get(url); err == nil {
			ui.PrintInfo("Already queued", url+" ("+string(existing.Status)+")")
			continue
		}
		if _, err := queue.Add(url); err != nil {
			ui.PrintError("Failed to queue URL", err.Error())
			return err
		}
		added++
	}

	if added > 0 {
		ui.PrintSuccess(fmt.Sprintf("Queued %d URL(s)", added))
	}
	return nil
}
