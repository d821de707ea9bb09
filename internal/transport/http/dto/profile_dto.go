package dto

type ProfilePrompt struct {
	Question string `json:"q"`
	Answer   string `json:"a"`
}

type ProfileRequest struct {
	DisplayName  string          `json:"display_name"`
	Age          int             `json:"age"`
	Program      string          `json:"program"`
	Year         string          `json:"year"`
	Interests    []string        `json:"interests"`
	Prompts      []ProfilePrompt `json:"prompts"`
	Photos       []string        `json:"photos"`
	Discoverable bool            `json:"discoverable"`
}

type ProfileResponse struct {
	UserID       int64           `json:"user_id"`
	DisplayName  string          `json:"display_name"`
	Age          int             `json:"age"`
	Program      string          `json:"program,omitempty"`
	Year         string          `json:"year,omitempty"`
	Interests    []string        `json:"interests,omitempty"`
	Prompts      []ProfilePrompt `json:"prompts,omitempty"`
	Photos       []string        `json:"photos,omitempty"`
	Discoverable bool            `json:"discoverable"`
}
