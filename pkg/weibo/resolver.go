package weibo

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"weibograb/pkg/logger"
)

// ErrPostNotFound is returned when every retrieval strategy has been
// exhausted without producing the post.
var ErrPostNotFound = errors.New("post not found by any retrieval strategy")

// renderDataPattern extracts the JSON literal the detail page embeds
// for client-side rendering.
var renderDataPattern = regexp.MustCompile(`(?s)var \$render_data = \[(.*?)\]\[0\] \|\| \{\};`)

// defaultListingPages bounds how many container pages each listing
// strategy scans before giving up.
const defaultListingPages = 3

// strategy is one independent way of obtaining a raw post.
type strategy interface {
	name() string
	resolve(userID, postID string) (*RawPost, error)
}

// Resolver obtains a raw post by trying an ordered chain of retrieval
// strategies until one succeeds. Strategy failures are logged and
// swallowed; only full exhaustion is an error.
type Resolver struct {
	strategies []strategy
	logger     logger.Logger
}

// NewResolver creates a Resolver over the standard strategy chain:
// detail page, timeline listing, secondary profile listing, and
// finally direct status lookup.
func NewResolver(client *Client, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{
		strategies: []strategy{
			&detailPageStrategy{client: client, logger: log},
			&listingStrategy{client: client, logger: log, label: "timeline", pageURL: TimelineURL, pages: defaultListingPages},
			&listingStrategy{client: client, logger: log, label: "secondary_profile", pageURL: SecondaryProfileURL, pages: defaultListingPages},
			&statusShowStrategy{client: client, logger: log},
		},
		logger: log,
	}
}

// Resolve returns the first raw post any strategy produces, or
// ErrPostNotFound once the chain is exhausted. No network-level
// retries happen at this layer.
func (r *Resolver) Resolve(userID, postID string) (*RawPost, error) {
	for _, s := range r.strategies {
		post, err := s.resolve(userID, postID)
		if err != nil {
			r.logger.WarnWithFields("retrieval strategy failed", map[string]interface{}{
				"strategy": s.name(),
				"user_id":  userID,
				"post_id":  postID,
				"error":    err.Error(),
			})
			continue
		}
		if post != nil {
			r.logger.DebugWithFields("post resolved", map[string]interface{}{
				"strategy": s.name(),
				"post_id":  postID,
			})
			return post, nil
		}
	}
	return nil, ErrPostNotFound
}

// detailPageStrategy fetches the HTML detail page and extracts the
// embedded render data.
type detailPageStrategy struct {
	client *Client
	logger logger.Logger
}

func (s *detailPageStrategy) name() string { return "detail_page" }

func (s *detailPageStrategy) resolve(userID, postID string) (*RawPost, error) {
	url := DetailPageURL(postID)
	html, err := s.client.GetHTML(url, map[string]string{
		"Referer": url,
	})
	if err != nil {
		return nil, err
	}

	m := renderDataPattern.FindStringSubmatch(html)
	if m == nil {
		return nil, fmt.Errorf("render data marker not found in detail page")
	}

	var data renderData
	if err := json.Unmarshal([]byte(m[1]), &data); err != nil {
		return nil, fmt.Errorf("failed to parse render data: %w", err)
	}
	if data.Status == nil {
		return nil, fmt.Errorf("render data carries no status")
	}
	return data.Status, nil
}

// listingStrategy pages through a container listing and scans the
// returned cards for the wanted post.
type listingStrategy struct {
	client  *Client
	logger  logger.Logger
	label   string
	pageURL func(userID string, page int) string
	pages   int
}

func (s *listingStrategy) name() string { return s.label }

func (s *listingStrategy) resolve(userID, postID string) (*RawPost, error) {
	for page := 1; page <= s.pages; page++ {
		var resp containerResponse
		if err := s.client.GetJSON(s.pageURL(userID, page), nil, &resp); err != nil {
			return nil, err
		}
		if resp.Ok != 1 || len(resp.Data.Cards) == 0 {
			break
		}
		for _, card := range resp.Data.Cards {
			if card.Mblog == nil {
				continue
			}
			if card.Mblog.ID.String() == postID || card.Mblog.Bid == postID {
				return card.Mblog, nil
			}
		}
	}
	return nil, fmt.Errorf("post %s not present in %s listing", postID, s.label)
}

// statusShowStrategy fetches the post directly by its id.
type statusShowStrategy struct {
	client *Client
	logger logger.Logger
}

func (s *statusShowStrategy) name() string { return "status_show" }

func (s *statusShowStrategy) resolve(userID, postID string) (*RawPost, error) {
	var resp statusResponse
	if err := s.client.GetJSON(StatusShowURL(postID), map[string]string{
		"Referer": DetailPageURL(postID),
	}, &resp); err != nil {
		return nil, err
	}
	if resp.Ok != 1 || resp.Data == nil {
		return nil, fmt.Errorf("status lookup returned no data")
	}
	return resp.Data, nil
}
