package weibo

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FlexString decodes a JSON value that the upstream service emits
// sometimes as a string and sometimes as a number.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("value is neither string nor number: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// StringList decodes a JSON value that may be a single string or a
// list of strings.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}
	if data[0] == '"' {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*s = StringList{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("value is neither string nor string list: %w", err)
	}
	*s = StringList(list)
	return nil
}

// User identifies the author of a post
type User struct {
	ID         FlexString `json:"id"`
	ScreenName string     `json:"screen_name"`
}

// PicVersion is one rendition of an image
type PicVersion struct {
	URL string `json:"url"`
}

// PicValues carries alternate live-photo metadata nested under a pic
type PicValues struct {
	LivePhotoURL string `json:"live_photo_url"`
}

// Pic is one entry of a post's pics array. The upstream service has
// shipped live-photo URLs under at least four different fields here.
type Pic struct {
	Type         string      `json:"type"`
	Large        *PicVersion `json:"large"`
	VideoSrc     string      `json:"videoSrc"`
	LivePhotoURL string      `json:"live_photo_url"`
	Values       *PicValues  `json:"values"`
	LivePhoto    string      `json:"live_photo"`
}

// MediaInfo holds the video renditions attached to page_info
type MediaInfo struct {
	Mp4HDURL  string `json:"mp4_hd_url"`
	Mp4720p   string `json:"mp4_720p_mp4"`
	Mp41080p  string `json:"mp4_1080p_mp4"`
	H265MP4HD string `json:"h265_mp4_hd"`
	H265MP4LD string `json:"h265_mp4_ld"`
}

// PageInfo describes an attached page object (video player or article)
type PageInfo struct {
	Type      string     `json:"type"`
	PageURL   string     `json:"page_url"`
	MediaInfo *MediaInfo `json:"media_info"`
}

// RawPost is a post as returned by the upstream service, with only the
// fields the pipeline consumes. Every field is optional.
type RawPost struct {
	ID              FlexString `json:"id"`
	Bid             string     `json:"bid"`
	User            *User      `json:"user"`
	Text            string     `json:"text"`
	Pics            []Pic      `json:"pics"`
	PageInfo        *PageInfo  `json:"page_info"`
	RetweetedStatus *RawPost   `json:"retweeted_status"`
	LivePhoto       StringList `json:"live_photo"`
}

// renderData is the JSON literal embedded in the detail page HTML
type renderData struct {
	Status *RawPost `json:"status"`
}

// card wraps one post in a container listing
type card struct {
	CardType int      `json:"card_type"`
	Mblog    *RawPost `json:"mblog"`
}

// containerResponse is the envelope of the container listing API
type containerResponse struct {
	Ok   int `json:"ok"`
	Data struct {
		Cards []card `json:"cards"`
	} `json:"data"`
}

// statusResponse is the envelope of the direct status-lookup API
type statusResponse struct {
	Ok   int      `json:"ok"`
	Data *RawPost `json:"data"`
}
