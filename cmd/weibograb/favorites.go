package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"weibograb/pkg/logger"
	"weibograb/pkg/tasks"
	"weibograb/pkg/ui"
	"weibograb/pkg/weibo"
)

var (
	favoritesMaxPages   int
	favoritesAddToTasks bool
)

// favoritesCmd represents the favorites command
var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "Crawl your favorited posts",
	Long: `Crawl your Weibo favorites list and export the post URLs to a dated
CSV file. With --add-to-tasks the URLs are also queued for archival.

Requires a logged-in session cookie.`,
	Example: `  # Export the first 5 pages of favorites
  weibograb favorites

  # Crawl more pages and queue every post
  weibograb favorites --max-pages 20 --add-to-tasks`,
	Args: cobra.NoArgs,
	RunE: runFavorites,
}

func init() {
	rootCmd.AddCommand(favoritesCmd)

	favoritesCmd.Flags().IntVar(&favoritesMaxPages, "max-pages", 0, "maximum pages to crawl (default from config)")
	favoritesCmd.Flags().BoolVar(&favoritesAddToTasks, "add-to-tasks", false, "queue crawled URLs for archival")
}

func runFavorites(cmd *cobra.Command, args []string) error {
	flags := map[string]interface{}{}
	if favoritesMaxPages > 0 {
		flags["max-pages"] = favoritesMaxPages
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

	client := newAPIClient(cfg, log)
	crawler := weibo.NewFavoritesCrawler(client, cfg.Favorites.PageInterval, log)

	ui.PrintInfo("Crawling favorites", fmt.Sprintf("up to %d page(s)", cfg.Favorites.MaxPages))
	favorites, err := crawler.FetchAll(cfg.Favorites.MaxPages)
	if err != nil {
		ui.PrintError("Failed to crawl favorites", err.Error())
		return err
	}
	if len(favorites) == 0 {
		ui.PrintHighlight("No favorites found")
		return nil
	}

	path, err := crawler.ExportCSV(favorites, cfg.Output.BaseDirectory)
	if err != nil {
		ui.PrintError("Failed to export favorites", err.Error())
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Exported %d favorite(s) to %s", len(favorites), path))

	if !favoritesAddToTasks {
		return nil
	}

	queue, err := tasks.NewQueue(&cfg.Tasks, log)
	if err != nil {
		ui.PrintError("Failed to open task queue", err.Error())
		return err
	}
	defer queue.Close()

	added := 0
	for _, fav := range favorites {
		if _, err := queue.Get(fav.URL); err == nil {
			continue
		}
		if _, err := queue.Add(fav.URL); err != nil {
			ui.PrintError("Failed to queue URL", err.Error())
			return err
		}
		added++
	}
	ui.PrintSuccess(fmt.Sprintf("Queued %d new task(s)", added))
	return nil
}
