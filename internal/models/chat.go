package models

// Message is one entry of the client transcript.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is the success body of POST /ask.
type AskResponse struct {
	Answer string `json:"answer"`
}

// ErrorResponse is returned for a missing question.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DetailResponse carries retrieval and generation failures.
type DetailResponse struct {
	Detail string `json:"detail"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
