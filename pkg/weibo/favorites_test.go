package weibo

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weibograb/pkg/logger"
)

func TestParseFavoritesPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		urls    []string
	}{
		{
			name:    "bare list",
			payload: `[{"user":{"id":42,"screen_name":"alice"},"mblogid":"aaa","created_at":"Tue Jan 02 10:00:00 +0800 2024"}]`,
			urls:    []string{"https://weibo.com/42/aaa"},
		},
		{
			name:    "ok envelope",
			payload: `{"ok":1,"data":[{"user":{"id":"42"},"mblogid":"aaa"},{"user":{"id":"43"},"mblogid":"bbb"}]}`,
			urls:    []string{"https://weibo.com/42/aaa", "https://weibo.com/43/bbb"},
		},
		{
			name:    "wrapped favorites",
			payload: `{"data":{"favorites":[{"user":{"id":42},"mblogid":"aaa"}]}}`,
			urls:    []string{"https://weibo.com/42/aaa"},
		},
		{
			name:    "empty data",
			payload: `{"ok":1}`,
			urls:    nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := parseFavoritesPayload(json.RawMessage(tt.payload))
			require.NoError(t, err)

			var urls []string
			for _, item := range items {
				if item.User != nil && item.MblogID != "" {
					urls = append(urls, PostWebURL(item.User.ID.String(), item.MblogID))
				}
			}
			assert.Equal(t, tt.urls, urls)
		})
	}
}

func TestParseFavoritesPayloadRejectsGarbage(t *testing.T) {
	_, err := parseFavoritesPayload(json.RawMessage(`{"data":"nope"}`))
	assert.Error(t, err)
}

func TestFetchAllStopsOnEmptyPage(t *testing.T) {
	client := newRoutedClient(func(url string) (int, string) {
		switch {
		case strings.Contains(url, "page=1"):
			return 200, `{"ok":1,"data":[
				{"user":{"id":42},"mblogid":"aaa","created_at":"t1"},
				{"user":{"id":43},"mblogid":"bbb","created_at":"t2"},
				{"user":null,"mblogid":"skipped"}
			]}`
		default:
			return 200, `{"ok":1,"data":[]}`
		}
	})

	crawler := NewFavoritesCrawler(client, time.Millisecond, logger.NewTestLogger())
	favorites, err := crawler.FetchAll(10)
	require.NoError(t, err)
	require.Len(t, favorites, 2)
	assert.Equal(t, "https://weibo.com/42/aaa", favorites[0].URL)
	assert.Equal(t, "t1", favorites[0].FavoritedAt)
	assert.Equal(t, "https://weibo.com/43/bbb", favorites[1].URL)
}

func TestFetchAllFirstPageFailureIsFatal(t *testing.T) {
	client := newRoutedClient(func(url string) (int, string) {
		return 200, `<html>please log in</html>`
	})

	crawler := NewFavoritesCrawler(client, time.Millisecond, logger.NewTestLogger())
	_, err := crawler.FetchAll(10)
	assert.Error(t, err)
}

func TestFetchAllLaterPageFailureStopsQuietly(t *testing.T) {
	log := logger.NewTestLogger()
	client := newRoutedClient(func(url string) (int, string) {
		if strings.Contains(url, "page=1") {
			return 200, `{"ok":1,"data":[{"user":{"id":42},"mblogid":"aaa"}]}`
		}
		return 500, "server error"
	})

	crawler := NewFavoritesCrawler(client, time.Millisecond, log)
	favorites, err := crawler.FetchAll(10)
	require.NoError(t, err)
	assert.Len(t, favorites, 1)
	assert.True(t, log.HasMessage("WARN", "favorites page fetch failed"))
}

func TestExportCSV(t *testing.T) {
	baseDir := t.TempDir()
	crawler := NewFavoritesCrawler(nil, time.Second, logger.NewTestLogger())
	crawler.now = func() time.Time {
		return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	}

	favorites := []Favorite{
		{URL: "https://weibo.com/42/aaa", FavoritedAt: "Tue Jan 02 10:00:00 +0800 2024"},
	}
	path, err := crawler.ExportCSV(favorites, baseDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(baseDir, "weibo", "favorites_20240615.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.True(t, strings.HasPrefix(content, "\uFEFF"))
	assert.Contains(t, content, "url,favorited_time")
	assert.Contains(t, content, "https://weibo.com/42/aaa,Tue Jan 02 10:00:00 +0800 2024")
}

func TestExportCSVEmpty(t *testing.T) {
	crawler := NewFavoritesCrawler(nil, time.Second, logger.NewTestLogger())
	_, err := crawler.ExportCSV(nil, t.TempDir())
	assert.Error(t, err)
}
