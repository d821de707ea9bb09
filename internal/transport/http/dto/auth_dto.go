package dto

type RequestCodeRequest struct {
	Email string `json:"email"`
}

type RequestCodeResponse struct {
	OK bool `json:"ok"`
}

type VerifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthMeResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type AuthTokensResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	ExpiresInSec int64          `json:"expires_in_sec"`
	Me           AuthMeResponse `json:"me"`
}

type LogoutResponse struct {
	OK bool `json:"ok"`
}
