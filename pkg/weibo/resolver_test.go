package weibo

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weibograb/pkg/logger"
)

// routeFunc serves canned responses per URL substring
type routeFunc func(url string) (status int, body string)

func (f routeFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	status, body := f(req.URL.String())
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func newRoutedClient(routes routeFunc) *Client {
	client := NewClient(10*time.Second, logger.NewTestLogger())
	client.SetTransport(routes)
	return client
}

const detailPageHTML = `<html><script>
var $render_data = [{
	"status": {
		"id": "4901",
		"bid": "O9XkqFeGq",
		"user": {"id": 42, "screen_name": "alice"},
		"text": "from the detail page"
	}
}][0] || {};
</script></html>`

func TestResolveViaDetailPage(t *testing.T) {
	client := newRoutedClient(func(url string) (int, string) {
		if strings.Contains(url, "/detail/") {
			return 200, detailPageHTML
		}
		t.Errorf("unexpected request to %s", url)
		return 500, ""
	})

	post, err := NewResolver(client, logger.NewTestLogger()).Resolve("42", "O9XkqFeGq")
	require.NoError(t, err)
	assert.Equal(t, "O9XkqFeGq", post.Bid)
	assert.Equal(t, "from the detail page", post.Text)
}

func TestResolveFallsBackToTimeline(t *testing.T) {
	log := logger.NewTestLogger()
	client := newRoutedClient(func(url string) (int, string) {
		switch {
		case strings.Contains(url, "/detail/"):
			// deleted post: the detail page renders an error shell
			return 200, `<html><body>error</body></html>`
		case strings.Contains(url, "containerid=107603"):
			if strings.Contains(url, "page=1") {
				return 200, `{"ok":1,"data":{"cards":[
					{"card_type":9,"mblog":{"id":"1111","bid":"other","text":"not it"}},
					{"card_type":9,"mblog":{"id":"2222","bid":"O9XkqFeGq","text":"from the timeline"}}
				]}}`
			}
			return 200, `{"ok":0,"data":{"cards":[]}}`
		}
		t.Errorf("unexpected request to %s", url)
		return 500, ""
	})

	post, err := NewResolver(client, log).Resolve("42", "O9XkqFeGq")
	require.NoError(t, err)
	assert.Equal(t, "from the timeline", post.Text)
	assert.True(t, log.HasMessage("WARN", "retrieval strategy failed"))
}

func TestResolveMatchesByNumericID(t *testing.T) {
	client := newRoutedClient(func(url string) (int, string) {
		switch {
		case strings.Contains(url, "/detail/"):
			return 404, "not found"
		case strings.Contains(url, "containerid=107603"):
			if strings.Contains(url, "page=1") {
				return 200, `{"ok":1,"data":{"cards":[
					{"card_type":9,"mblog":{"id":4901234567890,"bid":"O9XkqFeGq","text":"matched by id"}}
				]}}`
			}
			return 200, `{"ok":0,"data":{"cards":[]}}`
		}
		t.Errorf("unexpected request to %s", url)
		return 500, ""
	})

	post, err := NewResolver(client, logger.NewTestLogger()).Resolve("42", "4901234567890")
	require.NoError(t, err)
	assert.Equal(t, "matched by id", post.Text)
}

func TestResolveFallsBackToSecondaryProfile(t *testing.T) {
	client := newRoutedClient(func(url string) (int, string) {
		switch {
		case strings.Contains(url, "/detail/"):
			return 404, "not found"
		case strings.Contains(url, "containerid=107603"):
			return 200, `{"ok":0,"data":{"cards":[]}}`
		case strings.Contains(url, "containerid=23028342_-_WEIBO_SECOND_PROFILE_WEIBO"):
			assert.Contains(t, url, "page_type=03")
			if strings.Contains(url, "page=1") {
				return 200, `{"ok":1,"data":{"cards":[
					{"card_type":9,"mblog":{"id":"3333","bid":"O9XkqFeGq","text":"from the second profile"}}
				]}}`
			}
			return 200, `{"ok":0,"data":{"cards":[]}}`
		}
		t.Errorf("unexpected request to %s", url)
		return 500, ""
	})

	post, err := NewResolver(client, logger.NewTestLogger()).Resolve("42", "O9XkqFeGq")
	require.NoError(t, err)
	assert.Equal(t, "from the second profile", post.Text)
}

func TestResolveFallsBackToStatusShow(t *testing.T) {
	client := newRoutedClient(func(url string) (int, string) {
		switch {
		case strings.Contains(url, "/detail/"):
			return 404, "not found"
		case strings.Contains(url, "containerid="):
			return 200, `{"ok":0,"data":{"cards":[]}}`
		case strings.Contains(url, "/statuses/show"):
			return 200, `{"ok":1,"data":{"id":"4901","bid":"O9XkqFeGq","text":"from status show"}}`
		}
		t.Errorf("unexpected request to %s", url)
		return 500, ""
	})

	post, err := NewResolver(client, logger.NewTestLogger()).Resolve("42", "O9XkqFeGq")
	require.NoError(t, err)
	assert.Equal(t, "from status show", post.Text)
}

func TestResolveExhaustsAllStrategies(t *testing.T) {
	client := newRoutedClient(func(url string) (int, string) {
		return 404, "not found"
	})

	_, err := NewResolver(client, logger.NewTestLogger()).Resolve("42", "O9XkqFeGq")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestResolveTreatsSessionHTMLAsStrategyFailure(t *testing.T) {
	log := logger.NewTestLogger()
	client := NewClient(10*time.Second, log)
	client.SetTransport(routeFunc(func(url string) (int, string) {
		switch {
		case strings.Contains(url, "/detail/"):
			return 200, `<html>no render data here</html>`
		case strings.Contains(url, "containerid="):
			// expired session: listing endpoints answer with a login page
			return 200, `<html>please log in</html>`
		case strings.Contains(url, "/statuses/show"):
			return 200, `{"ok":1,"data":{"id":"4901","bid":"O9XkqFeGq","text":"recovered"}}`
		}
		return 500, ""
	}))

	post, err := NewResolver(client, log).Resolve("42", "O9XkqFeGq")
	require.NoError(t, err)
	assert.Equal(t, "recovered", post.Text)
	assert.True(t, log.HasMessage("WARN", "got HTML where JSON was expected"))
}
