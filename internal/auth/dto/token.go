package dto

type AccessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type LoginResponse struct {
	AccessToken string     `json:"accessToken"`
	User        UserOutput `json:"user"`
}
