package dto

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult carries everything the handler needs to answer a successful
// login: the access token for the JSON body and the raw refresh token for
// the Set-Cookie header. RawRefreshToken must never be serialized.
type LoginResult struct {
	AccessToken      string
	RawRefreshToken  string
	RefreshExpiresAt int64
	User             UserOutput
}
