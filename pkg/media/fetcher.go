package media

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"weibograb/pkg/config"
	"weibograb/pkg/errors"
	"weibograb/pkg/logger"
	"weibograb/pkg/retry"
)

// mediaSubdir is where downloaded assets live under the output base
// directory; returned paths are relative to the base directory.
const mediaSubdir = "media"

// Fetcher downloads media assets one at a time. Images are a single
// plain GET; videos get a bounded retry with a size check because the
// upstream CDN regularly drops long transfers.
type Fetcher struct {
	imageClient *http.Client
	videoClient *http.Client
	baseDir     string
	mediaDir    string
	retries     int
	retryDelay  time.Duration
	userAgent   string
	logger      logger.Logger
}

// NewFetcher creates a Fetcher rooted at baseDir
func NewFetcher(cfg *config.DownloadConfig, baseDir, userAgent string, log logger.Logger) (*Fetcher, error) {
	if log == nil {
		log = logger.Nop()
	}

	mediaDir := filepath.Join(baseDir, mediaSubdir)
	if err := os.MkdirAll(mediaDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}

	return &Fetcher{
		imageClient: &http.Client{Timeout: cfg.ImageTimeout},
		videoClient: &http.Client{Timeout: cfg.VideoTimeout},
		baseDir:     baseDir,
		mediaDir:    mediaDir,
		retries:     cfg.VideoRetries,
		retryDelay:  cfg.VideoRetryDelay,
		userAgent:   userAgent,
		logger:      log,
	}, nil
}

// FetchImage downloads one image and returns its path relative to the
// output base directory.
func (f *Fetcher) FetchImage(url, userID, bid string, index int, overwrite bool) (string, error) {
	filename := fmt.Sprintf("%s_%s_%d%s", userID, bid, index, imageExt(url))
	fullPath := filepath.Join(f.mediaDir, filename)
	relPath := filepath.Join(mediaSubdir, filename)

	if fileExists(fullPath) && !overwrite {
		f.logger.DebugWithFields("image already downloaded, skipping", map[string]interface{}{
			"path": relPath,
		})
		return relPath, nil
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", errors.New(errors.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Referer", "https://weibo.com/")
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")

	resp, err := f.imageClient.Do(req)
	if err != nil {
		return "", errors.New(errors.ErrorTypeNetwork, 0, "image download failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.New(errors.ErrorTypeServerError, resp.StatusCode, "image download returned status %d", resp.StatusCode)
	}

	if err := writeAtomic(fullPath, resp.Body); err != nil {
		return "", err
	}

	f.logger.InfoWithFields("image downloaded", map[string]interface{}{
		"path": relPath,
	})
	return relPath, nil
}

// FetchVideo downloads one video with bounded retry and returns its
// path relative to the output base directory. A size mismatch between
// the declared content length and the bytes written counts as a
// transient failure and is retried; the partial temp file is removed
// between attempts and on final failure.
func (f *Fetcher) FetchVideo(url, userID, bid string, index int, overwrite bool) (string, error) {
	filename := fmt.Sprintf("%s_%s_%d%s", userID, bid, index, videoExt(url))
	fullPath := filepath.Join(f.mediaDir, filename)
	relPath := filepath.Join(mediaSubdir, filename)
	tempPath := fullPath + ".tmp"

	if fileExists(fullPath) && !overwrite {
		f.logger.DebugWithFields("video already downloaded, skipping", map[string]interface{}{
			"path": relPath,
		})
		return relPath, nil
	}

	err := retry.Do(func() error {
		return f.downloadVideoOnce(url, tempPath, fullPath)
	}, &retry.Config{
		MaxAttempts: f.retries,
		Backoff:     retry.NewConstantBackoff(f.retryDelay),
		RetryIf:     retry.DefaultRetryIf,
		Logger:      f.logger.WithField("url", url),
	})
	if err != nil {
		os.Remove(tempPath)
		return "", err
	}

	f.logger.InfoWithFields("video downloaded", map[string]interface{}{
		"path": relPath,
	})
	return relPath, nil
}

// downloadVideoOnce performs a single streaming download attempt
func (f *Fetcher) downloadVideoOnce(url, tempPath, fullPath string) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return errors.New(errors.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Referer", "https://weibo.com/")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Range", "bytes=0-")

	resp, err := f.videoClient.Do(req)
	if err != nil {
		return errors.New(errors.ErrorTypeNetwork, 0, "video download failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return errors.New(errors.ErrorTypeServerError, resp.StatusCode, "video download returned status %d", resp.StatusCode)
	}

	out, err := os.Create(tempPath)
	if err != nil {
		return errors.New(errors.ErrorTypeUnknown, 0, "failed to create temp file: %v", err)
	}
	written, copyErr := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if copyErr != nil {
		os.Remove(tempPath)
		return errors.New(errors.ErrorTypeNetwork, 0, "video stream interrupted: %v", copyErr)
	}
	if closeErr != nil {
		os.Remove(tempPath)
		return errors.New(errors.ErrorTypeUnknown, 0, "failed to close temp file: %v", closeErr)
	}

	if resp.ContentLength > 0 && written != resp.ContentLength {
		os.Remove(tempPath)
		return errors.New(errors.ErrorTypeNetwork, 0,
			"incomplete video download: got %d of %d bytes", written, resp.ContentLength)
	}

	if err := os.Rename(tempPath, fullPath); err != nil {
		os.Remove(tempPath)
		return errors.New(errors.ErrorTypeUnknown, 0, "failed to finalize video file: %v", err)
	}
	return nil
}

// writeAtomic streams r to path via a temp file and rename
func writeAtomic(path string, r io.Reader) error {
	tempPath := path + ".tmp"
	out, err := os.Create(tempPath)
	if err != nil {
		return errors.New(errors.ErrorTypeUnknown, 0, "failed to create temp file: %v", err)
	}
	_, copyErr := io.Copy(out, r)
	closeErr := out.Close()
	if copyErr != nil {
		os.Remove(tempPath)
		return errors.New(errors.ErrorTypeNetwork, 0, "download interrupted: %v", copyErr)
	}
	if closeErr != nil {
		os.Remove(tempPath)
		return errors.New(errors.ErrorTypeUnknown, 0, "failed to close temp file: %v", closeErr)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errors.New(errors.ErrorTypeUnknown, 0, "failed to finalize file: %v", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// imageExt derives the file extension from the URL's last path
// segment, falling back to .jpg when there is none or it is implausibly
// long (a query string glued onto the segment).
func imageExt(url string) string {
	seg := url
	if i := strings.LastIndex(seg, "/"); i != -1 {
		seg = seg[i+1:]
	}
	ext := path.Ext(seg)
	if ext == "" || len(ext) > 5 {
		return ".jpg"
	}
	return ext
}

// videoExt is like imageExt with the query string stripped first and a
// .mp4 fallback.
func videoExt(url string) string {
	seg := url
	if i := strings.LastIndex(seg, "/"); i != -1 {
		seg = seg[i+1:]
	}
	if i := strings.Index(seg, "?"); i != -1 {
		seg = seg[:i]
	}
	ext := path.Ext(seg)
	if ext == "" || len(ext) > 5 {
		return ".mp4"
	}
	return ext
}
