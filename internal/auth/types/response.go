package types

// ResponseTokenRefreshed is the response for a JWT refresh
type ResponseTokenRefreshed struct {
	TokenID int64  `json:"token_id"`
	Label   string `json:"label"`
	Token   string `json:"token"`
	Message string `json:"message"`
}
