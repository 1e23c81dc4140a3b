package record

// CanonicalRecord is the flat, persisted form of one archived post.
// For reposts the primary fields describe the original post and the
// Retweet* fields describe the reposting post; that swap is the
// intended semantics of the archive format.
type CanonicalRecord struct {
	ID                string
	Bid               string
	UserID            string
	ScreenName        string
	Text              string
	ArticleURL        string
	Topics            string
	Pics              string
	Videos            string
	SourceURL         string
	RetweetID         string
	RetweetText       string
	RetweetScreenName string
	RetweetUserID     string
	RetweetSourceURL  string

	// RetweetPics and RetweetVideos mirror Pics/Videos for reposts.
	// They are carried on the record but not persisted; the archive
	// format has always had exactly the 15 columns above.
	RetweetPics   string
	RetweetVideos string
}

// Header returns the persisted column names in order
func Header() []string {
	return []string{
		"id",
		"bid",
		"user_id",
		"screen_name",
		"text",
		"article_url",
		"topics",
		"pics",
		"videos",
		"source_url",
		"retweet_id",
		"retweet_text",
		"retweet_screen_name",
		"retweet_user_id",
		"retweet_source_url",
	}
}

// Fields returns the persisted column values in header order
func (r *CanonicalRecord) Fields() []string {
	return []string{
		r.ID,
		r.Bid,
		r.UserID,
		r.ScreenName,
		r.Text,
		r.ArticleURL,
		r.Topics,
		r.Pics,
		r.Videos,
		r.SourceURL,
		r.RetweetID,
		r.RetweetText,
		r.RetweetScreenName,
		r.RetweetUserID,
		r.RetweetSourceURL,
	}
}

// FromFields rebuilds a record from a persisted row
func FromFields(fields []string) *CanonicalRecord {
	get := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}
	return &CanonicalRecord{
		ID:                get(0),
		Bid:               get(1),
		UserID:            get(2),
		ScreenName:        get(3),
		Text:              get(4),
		ArticleURL:        get(5),
		Topics:            get(6),
		Pics:              get(7),
		Videos:            get(8),
		SourceURL:         get(9),
		RetweetID:         get(10),
		RetweetText:       get(11),
		RetweetScreenName: get(12),
		RetweetUserID:     get(13),
		RetweetSourceURL:  get(14),
	}
}
