package media

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weibograb/pkg/config"
	"weibograb/pkg/logger"
)

func newTestFetcher(t *testing.T) (*Fetcher, string) {
	baseDir := t.TempDir()
	f, err := NewFetcher(&config.DownloadConfig{
		ImageTimeout:    5 * time.Second,
		VideoTimeout:    5 * time.Second,
		VideoRetries:    3,
		VideoRetryDelay: time.Millisecond,
	}, baseDir, "test-agent", logger.NewTestLogger())
	require.NoError(t, err)
	return f, baseDir
}

func TestFetchImage(t *testing.T) {
	var gotAgent, gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		w.Write([]byte("image bytes"))
	}))
	defer srv.Close()

	f, baseDir := newTestFetcher(t)

	rel, err := f.FetchImage(srv.URL+"/large/a.jpg", "42", "abc", 1, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("media", "42_abc_1.jpg"), rel)
	assert.Equal(t, "test-agent", gotAgent)
	assert.Equal(t, "https://weibo.com/", gotReferer)

	data, err := os.ReadFile(filepath.Join(baseDir, rel))
	require.NoError(t, err)
	assert.Equal(t, "image bytes", string(data))
}

func TestFetchImageSkipsExisting(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprintf(w, "download %d", requests)
	}))
	defer srv.Close()

	f, baseDir := newTestFetcher(t)
	url := srv.URL + "/large/a.jpg"

	_, err := f.FetchImage(url, "42", "abc", 1, false)
	require.NoError(t, err)
	_, err = f.FetchImage(url, "42", "abc", 1, false)
	require.NoError(t, err)
	assert.Equal(t, 1, requests)

	// overwrite forces a refetch
	rel, err := f.FetchImage(url, "42", "abc", 1, true)
	require.NoError(t, err)
	assert.Equal(t, 2, requests)

	data, err := os.ReadFile(filepath.Join(baseDir, rel))
	require.NoError(t, err)
	assert.Equal(t, "download 2", string(data))
}

func TestFetchImageServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f, _ := newTestFetcher(t)
	_, err := f.FetchImage(srv.URL+"/large/a.jpg", "42", "abc", 1, false)
	assert.Error(t, err)
}

func TestFetchVideo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bytes=0-", r.Header.Get("Range"))
		w.Write([]byte("video bytes"))
	}))
	defer srv.Close()

	f, baseDir := newTestFetcher(t)
	rel, err := f.FetchVideo(srv.URL+"/clip.mp4?template=1280x720", "42", "abc", 0, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("media", "42_abc_0.mp4"), rel)

	data, err := os.ReadFile(filepath.Join(baseDir, rel))
	require.NoError(t, err)
	assert.Equal(t, "video bytes", string(data))
}

func TestFetchVideoRetriesOnSizeMismatch(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			// declare more bytes than are sent; the connection closes short
			w.Header().Set("Content-Length", "100")
			w.Write([]byte("truncated"))
			return
		}
		w.Write([]byte("complete video"))
	}))
	defer srv.Close()

	f, baseDir := newTestFetcher(t)
	rel, err := f.FetchVideo(srv.URL+"/clip.mp4", "42", "abc", 0, false)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	data, err := os.ReadFile(filepath.Join(baseDir, rel))
	require.NoError(t, err)
	assert.Equal(t, "complete video", string(data))
}

func TestFetchVideoExhaustsRetries(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f, baseDir := newTestFetcher(t)
	_, err := f.FetchVideo(srv.URL+"/clip.mp4", "42", "abc", 0, false)
	require.Error(t, err)
	assert.Equal(t, 3, attempts)

	// no partial files are left behind
	entries, err := os.ReadDir(filepath.Join(baseDir, "media"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFetchVideoNonRetryableStatus(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f, _ := newTestFetcher(t)
	_, err := f.FetchVideo(srv.URL+"/clip.mp4", "42", "abc", 0, false)
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestImageExt(t *testing.T) {
	assert.Equal(t, ".jpg", imageExt("https://wx1.sinaimg.cn/large/a.jpg"))
	assert.Equal(t, ".gif", imageExt("https://wx1.sinaimg.cn/large/b.gif"))
	// the query string is part of the segment; an oversized "extension"
	// falls back to .jpg
	assert.Equal(t, ".jpg", imageExt("https://wx1.sinaimg.cn/large/c.png?from=timeline"))
	assert.Equal(t, ".jpg", imageExt("https://wx1.sinaimg.cn/large/noext"))
}

func TestVideoExt(t *testing.T) {
	assert.Equal(t, ".mp4", videoExt("https://f.video/clip.mp4?template=1280x720"))
	assert.Equal(t, ".mov", videoExt("https://f.video/live.mov"))
	assert.Equal(t, ".mp4", videoExt("https://f.video/noext"))
}
