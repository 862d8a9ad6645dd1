package forum

// listing is the subreddit listing envelope.
type listing struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Data apiPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type apiPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	Subreddit   string  `json:"subreddit"`
	Author      string  `json:"author"`
	Score       int64   `json:"score"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	NumComments int64   `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Permalink   string  `json:"permalink"`
	URL         string  `json:"url"`
	IsVideo     bool    `json:"is_video"`
	Over18      bool    `json:"over_18"`
}
