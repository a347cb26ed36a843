// Package api provides the HTTP surface for role-scoped chat, index
// administration, and user management.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8000")
	ListenAddr string

	// TopK is the number of chunks retrieved per chat question.
	TopK int
}

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
