package weibo

import (
	"fmt"
	"regexp"
)

const (
	// WebBaseURL is the base URL of the desktop site, used for canonical post links
	WebBaseURL = "https://weibo.com"

	// MobileBaseURL is the base URL of the mobile API
	MobileBaseURL = "https://m.weibo.cn"

	// timelineContainerPrefix is the container id prefix of a user's timeline feed
	timelineContainerPrefix = "107603"

	// secondaryProfileContainerPrefix is the container id prefix of the
	// alternate profile feed; the full container id is
	// 230283<uid>_-_WEIBO_SECOND_PROFILE_WEIBO
	secondaryProfileContainerPrefix = "230283"

	// secondaryProfileContainerSuffix completes the alternate profile container id
	secondaryProfileContainerSuffix = "_-_WEIBO_SECOND_PROFILE_WEIBO"
)

// postURLPattern matches the canonical post URL shape
// weibo.com/<numeric user id>/<alphanumeric post id>, anywhere in the string.
var postURLPattern = regexp.MustCompile(`weibo\.com/(\d+)/(\w+)`)

// ExtractIDs parses a post's canonical web URL into its user id and
// post id. ok is false when the URL does not match.
func ExtractIDs(url string) (userID, postID string, ok bool) {
	m := postURLPattern.FindStringSubmatch(url)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// DetailPageURL returns the mobile detail page for a post
func DetailPageURL(postID string) string {
	return fmt.Sprintf("%s/detail/%s", MobileBaseURL, postID)
}

// TimelineURL returns one page of a user's timeline container listing
func TimelineURL(userID string, page int) string {
	return fmt.Sprintf("%s/api/container/getIndex?type=uid&value=%s&containerid=%s%s&page=%d",
		MobileBaseURL, userID, timelineContainerPrefix, userID, page)
}

// SecondaryProfileURL returns one page of the alternate profile container listing
func SecondaryProfileURL(userID string, page int) string {
	return fmt.Sprintf("%s/api/container/getIndex?type=uid&value=%s&containerid=%s%s%s&page_type=03&page=%d",
		MobileBaseURL, userID, secondaryProfileContainerPrefix, userID, secondaryProfileContainerSuffix, page)
}

// StatusShowURL returns the direct status-lookup endpoint for a post
func StatusShowURL(postID string) string {
	return fmt.Sprintf("%s/statuses/show?id=%s", MobileBaseURL, postID)
}

// FavoritesURL returns one page of the operator's favorites listing
func FavoritesURL(page, count int) string {
	return fmt.Sprintf("%s/ajax/favorites/all_fav?page=%d&count=%d", WebBaseURL, page, count)
}

// PostWebURL builds the canonical desktop URL for a post
func PostWebURL(userID, bid string) string {
	return fmt.Sprintf("%s/%s/%s", WebBaseURL, userID, bid)
}
