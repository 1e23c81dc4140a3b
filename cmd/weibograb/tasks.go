package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"weibograb/pkg/logger"
	"weibograb/pkg/tasks"
	"weibograb/pkg/ui"
)

var tasksAll bool

// tasksCmd represents the tasks command
var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Show the task queue",
	Long:  `List queued post URLs with their status. By default only pending tasks are shown.`,
	Example: `  # Pending tasks only
  weibograb tasks

  # Everything, including completed and failed
  weibograb tasks --all`,
	Args: cobra.NoArgs,
	RunE: runTasks,
}

func init() {
	rootCmd.AddCommand(tasksCmd)
	tasksCmd.Flags().BoolVarP(&tasksAll, "all", "a", false, "show every task regardless of status")
}

func runTasks(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return err
	}

	queue, err := tasks.NewQueue(&cfg.Tasks, logger.Nop())
	if err != nil {
		ui.PrintError("Failed to open task queue", err.Error())
		return err
	}
	defer queue.Close()

	list, err := queue.Pending(tasksAll)
	if err != nil {
		ui.PrintError("Failed to list tasks", err.Error())
		return err
	}

	if len(list) == 0 {
		ui.PrintHighlight("The queue is empty")
		return nil
	}

	for _, task := range list {
		line := fmt.Sprintf("%-10s %s", task.Status, task.URL)
		switch task.Status {
		case tasks.StatusCompleted:
			fmt.Println(ui.Green(line))
		case tasks.StatusFailed:
			fmt.Println(ui.Red(line))
		default:
			fmt.Println(line)
		}
		if task.Notes != "" {
			fmt.Println(ui.Dim("           " + task.Notes))
		}
	}
	fmt.Println()
	ui.PrintInfo("Total", fmt.Sprintf("%d task(s)", len(list)))
	return nil
}
