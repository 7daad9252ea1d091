package models

// ChatRequest is the JSON body for POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the assistant's reply, whether canned or relayed
// from the model API.
type ChatResponse struct {
	Response string `json:"response"`
}

// ChatError is the body returned when the upstream model call fails.
type ChatError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
