package video

type searchResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

type videosResponse struct {
	Items []apiVideo `json:"items"`
}

type apiVideo struct {
	ID      string `json:"id"`
	Snippet struct {
		Title        string   `json:"title"`
		Description  string   `json:"description"`
		PublishedAt  string   `json:"publishedAt"`
		ChannelTitle string   `json:"channelTitle"`
		ChannelID    string   `json:"channelId"`
		Tags         []string `json:"tags"`
	} `json:"snippet"`
	// Statistics counters arrive as strings.
	Statistics struct {
		ViewCount    string `json:"viewCount"`
		LikeCount    string `json:"likeCount"`
		CommentCount string `json:"commentCount"`
	} `json:"statistics"`
}
