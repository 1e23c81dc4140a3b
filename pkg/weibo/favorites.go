package weibo

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/ratelimit"

	"weibograb/pkg/logger"
)

// favoritesPageSize is how many favorites one listing page carries
const favoritesPageSize = 20

// Favorite is one favorited post, reduced to its canonical URL
type Favorite struct {
	URL         string
	FavoritedAt string
}

// favItem is one entry of the favorites listing
type favItem struct {
	User      *User  `json:"user"`
	MblogID   string `json:"mblogid"`
	CreatedAt string `json:"created_at"`
}

// FavoritesCrawler pages through the operator's favorites listing.
// Page requests are paced through a rate limiter so the listing API is
// never hammered.
type FavoritesCrawler struct {
	client  *Client
	limiter ratelimit.Limiter
	logger  logger.Logger
	now     func() time.Time
}

// NewFavoritesCrawler creates a crawler that fetches at most one
// listing page per pageInterval.
func NewFavoritesCrawler(client *Client, pageInterval time.Duration, log logger.Logger) *FavoritesCrawler {
	if log == nil {
		log = logger.Nop()
	}
	if pageInterval <= 0 {
		pageInterval = 2 * time.Second
	}
	return &FavoritesCrawler{
		client:  client,
		limiter: ratelimit.New(1, ratelimit.Per(pageInterval)),
		logger:  log,
		now:     time.Now,
	}
}

// FetchAll retrieves up to maxPages pages of favorites and returns the
// post URLs found. An empty page stops the crawl early.
func (fc *FavoritesCrawler) FetchAll(maxPages int) ([]Favorite, error) {
	var all []Favorite

	for page := 1; page <= maxPages; page++ {
		fc.limiter.Take()

		items, err := fc.fetchPage(page)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			fc.logger.WarnWithFields("favorites page fetch failed, stopping", map[string]interface{}{
				"page":  page,
				"error": err.Error(),
			})
			break
		}
		if len(items) == 0 {
			fc.logger.DebugWithFields("favorites page empty, stopping", map[string]interface{}{
				"page": page,
			})
			break
		}

		parsed := 0
		for _, item := range items {
			if item.User == nil || item.User.ID == "" || item.MblogID == "" {
				continue
			}
			all = append(all, Favorite{
				URL:         PostWebURL(item.User.ID.String(), item.MblogID),
				FavoritedAt: item.CreatedAt,
			})
			parsed++
		}
		fc.logger.InfoWithFields("favorites page fetched", map[string]interface{}{
			"page":  page,
			"count": parsed,
		})
	}

	fc.logger.InfoWithFields("favorites crawl finished", map[string]interface{}{
		"total": len(all),
	})
	return all, nil
}

// fetchPage retrieves and decodes one listing page
func (fc *FavoritesCrawler) fetchPage(page int) ([]favItem, error) {
	var raw json.RawMessage
	err := fc.client.GetJSON(FavoritesURL(page, favoritesPageSize), map[string]string{
		"Referer": WebBaseURL + "/fav",
	}, &raw)
	if err != nil {
		return nil, err
	}
	return parseFavoritesPayload(raw)
}

// parseFavoritesPayload tolerates the shapes the listing API has been
// seen returning: a bare list, {ok:1, data:[...]}, and
// {data:{favorites:[...]}}.
func parseFavoritesPayload(raw json.RawMessage) ([]favItem, error) {
	var items []favItem
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}

	var envelope struct {
		Ok   int             `json:"ok"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("unrecognized favorites payload: %w", err)
	}
	if len(envelope.Data) == 0 {
		return nil, nil
	}

	if err := json.Unmarshal(envelope.Data, &items); err == nil {
		return items, nil
	}

	var wrapped struct {
		Favorites []favItem `json:"favorites"`
	}
	if err := json.Unmarshal(envelope.Data, &wrapped); err != nil {
		return nil, fmt.Errorf("unrecognized favorites data shape: %w", err)
	}
	return wrapped.Favorites, nil
}

// ExportCSV writes the favorites to weibo/favorites_<date>.csv under
// baseDir and returns the file path.
func (fc *FavoritesCrawler) ExportCSV(favorites []Favorite, baseDir string) (string, error) {
	if len(favorites) == 0 {
		return "", fmt.Errorf("no favorites to save")
	}

	dir := filepath.Join(baseDir, "weibo")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("favorites_%s.csv", fc.now().Format("20060102")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create favorites file: %w", err)
	}
	defer f.Close()

	// BOM so spreadsheet tools detect UTF-8
	if _, err := f.WriteString("\uFEFF"); err != nil {
		return "", err
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{"url", "favorited_time"}); err != nil {
		return "", err
	}
	for _, fav := range favorites {
		if err := w.Write([]string{fav.URL, fav.FavoritedAt}); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	fc.logger.InfoWithFields("favorites saved", map[string]interface{}{
		"path":  path,
		"count": len(favorites),
	})
	return path, nil
}
