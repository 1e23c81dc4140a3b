package record

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"weibograb/pkg/logger"
	"weibograb/pkg/media"
	"weibograb/pkg/weibo"
)

// ErrEmptyPost is returned when the raw post is absent or carries no
// data at all. It is the normalizer's only hard failure; any other
// missing field degrades to an empty string.
var ErrEmptyPost = errors.New("raw post is empty")

// deletedAuthor marks an original post whose author is no longer visible
const deletedAuthor = "[deleted]"

var (
	anchorPattern = regexp.MustCompile(`<a[^>]*href="([^"]*)"[^>]*>(.*?)</a>`)
	tagPattern    = regexp.MustCompile(`<[^<]+?>`)
	topicPattern  = regexp.MustCompile(`#(.*?)#`)
)

// MediaFetcher downloads one asset and returns its path relative to
// the output base directory.
type MediaFetcher interface {
	FetchImage(url, userID, bid string, index int, overwrite bool) (string, error)
	FetchVideo(url, userID, bid string, index int, overwrite bool) (string, error)
}

// Options control media re-downloads
type Options struct {
	OverwritePics   bool
	OverwriteVideos bool
}

// Normalizer turns raw posts into canonical records, downloading the
// post's media as it goes. Media failures are logged and non-fatal; the
// record simply omits the missing paths.
type Normalizer struct {
	fetcher MediaFetcher
	logger  logger.Logger
}

// NewNormalizer creates a Normalizer
func NewNormalizer(fetcher MediaFetcher, log logger.Logger) *Normalizer {
	if log == nil {
		log = logger.Nop()
	}
	return &Normalizer{fetcher: fetcher, logger: log}
}

// postView is one post's contribution to the final record, computed
// before any repost reconciliation. Building both views up front and
// then assembling the record keeps the repost field swap free of
// order-of-mutation surprises.
type postView struct {
	id         string
	bid        string
	userID     string
	screenName string
	rewritten  string // anchors converted to markdown, tags still present
	cleaned    string // tags stripped, newlines removed, trimmed
}

// Normalize transforms a raw post into a canonical record.
// requestingUserID is the author id taken from the task URL; for
// reposts the record's primary fields end up describing the original
// post and the Retweet* fields the reposting one.
func (n *Normalizer) Normalize(post *weibo.RawPost, requestingUserID string, opts Options) (*CanonicalRecord, error) {
	if isEmptyPost(post) {
		return nil, ErrEmptyPost
	}

	outer := n.viewOf(post, requestingUserID)

	if !isRepost(post) {
		pics, videos := n.downloadMedia(post, requestingUserID, post.Bid, opts)
		return &CanonicalRecord{
			ID:         outer.id,
			Bid:        outer.bid,
			UserID:     requestingUserID,
			ScreenName: outer.screenName,
			Text:       outer.cleaned,
			ArticleURL: articleURL(post),
			Topics:     extractTopics(outer.rewritten),
			Pics:       pics,
			Videos:     videos,
			SourceURL:  weibo.PostWebURL(requestingUserID, outer.bid),
		}, nil
	}

	original := post.RetweetedStatus
	orig := n.viewOf(original, "")
	if original.User == nil {
		n.logger.WarnWithFields("original post author is not visible", map[string]interface{}{
			"post_id": outer.id,
		})
		orig.screenName = deletedAuthor
		orig.userID = ""
	}

	// Media belongs to the original post and is attributed to its author
	pics, videos := n.downloadMedia(original, orig.userID, orig.bid, opts)

	bid := outer.bid
	if orig.bid != "" {
		bid = orig.bid
	}

	sourceURL := ""
	if orig.userID != "" && orig.bid != "" {
		sourceURL = weibo.PostWebURL(orig.userID, orig.bid)
	}

	retweetText := ""
	if outer.cleaned != "" {
		retweetText = fmt.Sprintf("@%s:%s", outer.screenName, outer.cleaned)
	}

	return &CanonicalRecord{
		ID:                outer.id,
		Bid:               bid,
		UserID:            orig.userID,
		ScreenName:        orig.screenName,
		Text:              orig.cleaned,
		ArticleURL:        articleURL(post),
		Topics:            extractTopics(outer.rewritten),
		Pics:              pics,
		Videos:            videos,
		SourceURL:         sourceURL,
		RetweetID:         orig.id,
		RetweetText:       retweetText,
		RetweetScreenName: outer.screenName,
		RetweetUserID:     requestingUserID,
		RetweetSourceURL:  weibo.PostWebURL(requestingUserID, outer.bid),
		RetweetPics:       pics,
		RetweetVideos:     videos,
	}, nil
}

// viewOf computes one post's view with cleaned-up text
func (n *Normalizer) viewOf(post *weibo.RawPost, userID string) postView {
	v := postView{
		id:     post.ID.String(),
		bid:    post.Bid,
		userID: userID,
	}
	if post.User != nil {
		v.screenName = post.User.ScreenName
		if v.userID == "" {
			v.userID = post.User.ID.String()
		}
	}
	v.rewritten = n.rewriteLinks(post.Text)
	v.cleaned = strings.TrimSpace(strings.ReplaceAll(tagPattern.ReplaceAllString(v.rewritten, ""), "\n", ""))
	return v
}

// rewriteLinks converts anchor tags to markdown links. Emoticon links,
// relative links, and topic links keep only their visible text. Links
// wrapped in the external-link warning redirect are unwrapped to their
// real target first.
func (n *Normalizer) rewriteLinks(text string) string {
	return anchorPattern.ReplaceAllStringFunc(text, func(match string) string {
		m := anchorPattern.FindStringSubmatch(match)
		if m == nil {
			return match
		}
		href, linkText := m[1], m[2]

		if strings.HasPrefix(href, "/") || strings.Contains(href, "emotion") || strings.Contains(linkText, "#") {
			return linkText
		}

		if _, target, found := strings.Cut(href, "sinaurl?u="); found {
			// PathUnescape, not QueryUnescape: a literal + in the
			// target URL must survive the decode
			if decoded, err := url.PathUnescape(target); err == nil {
				href = decoded
			} else {
				n.logger.WarnWithFields("failed to decode redirect target", map[string]interface{}{
					"target": target,
					"error":  err.Error(),
				})
				href = target
			}
		}

		return fmt.Sprintf("[%s](%s)", linkText, href)
	})
}

// extractTopics returns every #topic# substring, comma-joined in order
// of appearance, duplicates retained.
func extractTopics(rewritten string) string {
	matches := topicPattern.FindAllStringSubmatch(rewritten, -1)
	topics := make([]string, 0, len(matches))
	for _, m := range matches {
		topics = append(topics, m[1])
	}
	return strings.Join(topics, ",")
}

// articleURL returns page_info.page_url for article-type pages only
func articleURL(post *weibo.RawPost) string {
	if post.PageInfo != nil && post.PageInfo.Type == "article" {
		return post.PageInfo.PageURL
	}
	return ""
}

// downloadMedia resolves and fetches the post's media sequentially,
// returning the comma-joined relative paths of the assets that made it.
func (n *Normalizer) downloadMedia(source *weibo.RawPost, userID, bid string, opts Options) (pics, videos string) {
	var localPics []string
	for _, asset := range media.SelectImages(source) {
		path, err := n.fetcher.FetchImage(asset.URL, userID, bid, asset.Index, opts.OverwritePics)
		if err != nil {
			n.logger.ErrorWithFields("image download failed", map[string]interface{}{
				"url":   asset.URL,
				"error": err.Error(),
			})
			continue
		}
		localPics = append(localPics, path)
	}

	var localVideos []string
	for _, asset := range media.SelectVideos(source, n.logger) {
		path, err := n.fetcher.FetchVideo(asset.URL, userID, bid, asset.Index, opts.OverwriteVideos)
		if err != nil {
			n.logger.ErrorWithFields("video download failed", map[string]interface{}{
				"url":   asset.URL,
				"error": err.Error(),
			})
			continue
		}
		localVideos = append(localVideos, path)
	}

	return strings.Join(localPics, ","), strings.Join(localVideos, ",")
}

// isRepost reports whether the post wraps another (non-empty) post
func isRepost(post *weibo.RawPost) bool {
	return !isEmptyPost(post.RetweetedStatus)
}

// isEmptyPost treats a nil post or a post with no consumed fields at
// all as absent.
func isEmptyPost(post *weibo.RawPost) bool {
	if post == nil {
		return true
	}
	return post.ID == "" &&
		post.Bid == "" &&
		post.User == nil &&
		post.Text == "" &&
		len(post.Pics) == 0 &&
		post.PageInfo == nil &&
		post.RetweetedStatus == nil &&
		len(post.LivePhoto) == 0
}
