package types

// RequestRefreshToken is the request for exchanging token credentials for a JWT
type RequestRefreshToken struct {
	TokenID     int64  `json:"token_id"`
	TokenSecret string `json:"token_secret"`
}
