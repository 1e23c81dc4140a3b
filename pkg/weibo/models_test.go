package weibo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexStringUnmarshal(t *testing.T) {
	var v struct {
		ID FlexString `json:"id"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"id":"4567"}`), &v))
	assert.Equal(t, "4567", v.ID.String())

	require.NoError(t, json.Unmarshal([]byte(`{"id":4567}`), &v))
	assert.Equal(t, "4567", v.ID.String())

	// large ids must not lose precision through float64
	require.NoError(t, json.Unmarshal([]byte(`{"id":4901234567890123456}`), &v))
	assert.Equal(t, "4901234567890123456", v.ID.String())

	require.NoError(t, json.Unmarshal([]byte(`{"id":null}`), &v))
	assert.Equal(t, "", v.ID.String())

	assert.Error(t, json.Unmarshal([]byte(`{"id":{"nested":true}}`), &v))
}

func TestStringListUnmarshal(t *testing.T) {
	var v struct {
		LivePhoto StringList `json:"live_photo"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"live_photo":"https://a/1.mov"}`), &v))
	assert.Equal(t, StringList{"https://a/1.mov"}, v.LivePhoto)

	require.NoError(t, json.Unmarshal([]byte(`{"live_photo":["https://a/1.mov","https://a/2.mov"]}`), &v))
	assert.Equal(t, StringList{"https://a/1.mov", "https://a/2.mov"}, v.LivePhoto)

	require.NoError(t, json.Unmarshal([]byte(`{"live_photo":null}`), &v))
	assert.Nil(t, v.LivePhoto)

	assert.Error(t, json.Unmarshal([]byte(`{"live_photo":7}`), &v))
}

func TestRawPostUnmarshal(t *testing.T) {
	payload := `{
		"id": 4901234567890,
		"bid": "O9XkqFeGq",
		"user": {"id": 1234567890, "screen_name": "alice"},
		"text": "hello",
		"pics": [{"large": {"url": "https://wx1.sinaimg.cn/large/a.jpg"}}],
		"page_info": {"type": "video", "media_info": {"mp4_720p_mp4": "https://f.video/720.mp4"}},
		"retweeted_status": {"id": "99", "bid": "inner"}
	}`

	var post RawPost
	require.NoError(t, json.Unmarshal([]byte(payload), &post))
	assert.Equal(t, "4901234567890", post.ID.String())
	assert.Equal(t, "O9XkqFeGq", post.Bid)
	require.NotNil(t, post.User)
	assert.Equal(t, "1234567890", post.User.ID.String())
	require.Len(t, post.Pics, 1)
	assert.Equal(t, "https://wx1.sinaimg.cn/large/a.jpg", post.Pics[0].Large.URL)
	require.NotNil(t, post.PageInfo)
	assert.Equal(t, "https://f.video/720.mp4", post.PageInfo.MediaInfo.Mp4720p)
	require.NotNil(t, post.RetweetedStatus)
	assert.Equal(t, "inner", post.RetweetedStatus.Bid)
}
