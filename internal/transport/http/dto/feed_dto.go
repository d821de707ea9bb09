package dto

type FeedPromptResponse struct {
	Question string `json:"q"`
	Answer   string `json:"a"`
}

type FeedProfileResponse struct {
	UserID      int64                `json:"user_id"`
	DisplayName string               `json:"display_name"`
	Age         int                  `json:"age"`
	Program     string               `json:"program,omitempty"`
	Year        string               `json:"year,omitempty"`
	Interests   []string             `json:"interests,omitempty"`
	Prompts     []FeedPromptResponse `json:"prompts,omitempty"`
	Photos      []string             `json:"photos,omitempty"`
}

type FeedResponse struct {
	Profiles   []FeedProfileResponse `json:"profiles"`
	NextCursor string                `json:"next_cursor,omitempty"`
	HasMore    bool                  `json:"has_more"`
}
