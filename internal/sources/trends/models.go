package trends

// interestResponse is the interest-over-time payload shape.
type interestResponse struct {
	Series []struct {
		Keyword string `json:"keyword"`
		Points  []struct {
			Date  string `json:"date"` // YYYY-MM-DD
			Value int64  `json:"value"`
		} `json:"points"`
	} `json:"series"`
}
