package dto

type MatchResponse struct {
	ID          int64    `json:"id"`
	UserID      int64    `json:"user_id"`
	DisplayName string   `json:"display_name"`
	Age         int      `json:"age"`
	Program     string   `json:"program,omitempty"`
	Photos      []string `json:"photos,omitempty"`
	MatchedAt   string   `json:"matched_at"`
}

type MatchesResponse struct {
	Matches []MatchResponse `json:"matches"`
}
