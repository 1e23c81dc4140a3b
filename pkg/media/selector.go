package media

import (
	"strconv"
	"strings"

	"weibograb/pkg/logger"
	"weibograb/pkg/weibo"
)

// Asset is one distinct downloadable media item of a post.
// Index is the 1-based position within the post's pics array; the
// primary page_info video uses index 0.
type Asset struct {
	URL         string
	Index       int
	IsLivePhoto bool
}

// SelectImages returns one image asset per pics entry that carries a
// large rendition, at its natural 1-based index.
func SelectImages(post *weibo.RawPost) []Asset {
	var assets []Asset
	for i, pic := range post.Pics {
		if pic.Large != nil && pic.Large.URL != "" {
			assets = append(assets, Asset{URL: pic.Large.URL, Index: i + 1})
		}
	}
	return assets
}

// SelectVideos extracts every distinct video of a post, keeping only
// the highest-resolution variant per filename. Live-photo URLs found
// under alternate fields are reconciled back to their pics position
// when possible; otherwise they get the next unused index.
func SelectVideos(post *weibo.RawPost, log logger.Logger) []Asset {
	if log == nil {
		log = logger.Nop()
	}

	type videoGroup struct {
		url         string
		resolution  int
		index       int
		isLivePhoto bool
	}

	groups := make(map[string]videoGroup)
	var order []string

	for i, pic := range post.Pics {
		if pic.VideoSrc == "" {
			continue
		}
		if pic.Type != "video" && pic.Type != "livephoto" {
			continue
		}

		identity := fileIdentity(pic.VideoSrc)
		resolution := templateWidth(pic.VideoSrc)

		existing, seen := groups[identity]
		if !seen {
			order = append(order, identity)
		}
		if !seen || resolution > existing.resolution {
			groups[identity] = videoGroup{
				url:         pic.VideoSrc,
				resolution:  resolution,
				index:       i + 1,
				isLivePhoto: pic.Type == "livephoto",
			}
		}
	}

	var assets []Asset
	for _, identity := range order {
		g := groups[identity]
		assets = append(assets, Asset{URL: g.url, Index: g.index, IsLivePhoto: g.isLivePhoto})
	}

	// The page_info video is the primary video of the post rather than a
	// pics entry, so it gets the special index 0.
	if post.PageInfo != nil && post.PageInfo.Type == "video" && post.PageInfo.MediaInfo != nil {
		mi := post.PageInfo.MediaInfo
		for _, url := range []string{mi.Mp4HDURL, mi.Mp4720p, mi.Mp41080p, mi.H265MP4HD, mi.H265MP4LD} {
			if url != "" {
				assets = append(assets, Asset{URL: url, Index: 0})
				break
			}
		}
	}

	livePhotos := LivePhotoURLs(post, log)
	if len(post.Pics) > 0 && len(livePhotos) > 0 {
		for _, lpURL := range livePhotos {
			if containsURL(assets, lpURL) {
				continue
			}

			foundIndex := -1
			for i, pic := range post.Pics {
				if pic.Type == "livephoto" && pic.VideoSrc == lpURL {
					foundIndex = i + 1
					break
				}
			}

			if foundIndex != -1 {
				assets = append(assets, Asset{URL: lpURL, Index: foundIndex, IsLivePhoto: true})
				continue
			}

			// No originating pics entry: assign the next unused index past
			// all known pics and video assets. Not stable across upstream
			// reorderings, hence the warning.
			nextIndex := len(post.Pics) + len(assets) + 1
			assets = append(assets, Asset{URL: lpURL, Index: nextIndex, IsLivePhoto: true})
			log.WarnWithFields("live photo has no matching pics entry, index inferred", map[string]interface{}{
				"url":   lpURL,
				"index": nextIndex,
			})
		}
	}

	return assets
}

// LivePhotoURLs collects live-photo video URLs from every field shape
// the upstream service has used: pics[].videoSrc, pics[].live_photo_url,
// pics[].values.live_photo_url, pics[].live_photo, and the root-level
// live_photo field (string or list).
func LivePhotoURLs(post *weibo.RawPost, log logger.Logger) []string {
	if log == nil {
		log = logger.Nop()
	}

	var urls []string
	seen := make(map[string]bool)
	add := func(url string) {
		if url != "" && !seen[url] {
			urls = append(urls, url)
			seen[url] = true
		}
	}

	for i, pic := range post.Pics {
		if pic.Type == "livephoto" && pic.VideoSrc != "" {
			add(pic.VideoSrc)
			log.DebugWithFields("live photo found via videoSrc", map[string]interface{}{
				"pic_index": i,
			})
		}
	}

	// Alternate fields are only consulted when videoSrc yielded nothing
	if len(urls) == 0 {
		for _, pic := range post.Pics {
			switch {
			case pic.LivePhotoURL != "":
				add(pic.LivePhotoURL)
			case pic.Values != nil && pic.Values.LivePhotoURL != "":
				add(pic.Values.LivePhotoURL)
			case pic.LivePhoto != "":
				add(pic.LivePhoto)
			}
		}
	}

	// The root-level field is consulted regardless
	for _, url := range post.LivePhoto {
		add(url)
	}

	return urls
}

// fileIdentity returns the filename portion of a URL: the path segment
// after the last '/', query string stripped.
func fileIdentity(url string) string {
	seg := url
	if i := strings.LastIndex(seg, "/"); i != -1 {
		seg = seg[i+1:]
	}
	if i := strings.Index(seg, "?"); i != -1 {
		seg = seg[:i]
	}
	return seg
}

// templateWidth parses the pixel width from a template=WIDTHxHEIGHT
// query parameter, or 0 when absent or malformed.
func templateWidth(url string) int {
	_, after, found := strings.Cut(url, "template=")
	if !found {
		return 0
	}
	if i := strings.Index(after, "&"); i != -1 {
		after = after[:i]
	}
	widthStr, _, found := strings.Cut(after, "x")
	if !found {
		return 0
	}
	width, err := strconv.Atoi(widthStr)
	if err != nil {
		return 0
	}
	return width
}

func containsURL(assets []Asset, url string) bool {
	for _, a := range assets {
		if a.URL == url {
			return true
		}
	}
	return false
}
