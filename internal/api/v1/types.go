package apiv1

// Pong defines model for Pong.
type Pong struct {
	Ping string `json:"ping"`
}

// Error is the body of every failed v1 response.
type Error struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
