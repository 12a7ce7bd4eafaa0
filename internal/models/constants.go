package models

const (
	// SentinelRegex matches raw delimiter tokens some models leak into output.
	SentinelRegex = `</?s>`
	ThinkTag      = `(?s)<think>.*?</think>`

	ContextSeparator = "\n"

	MissingQuestion = "Missing question"
	HealthMessage   = "Backend is running"

	// client-side storage keys
	TranscriptKey = "chat_messages"
	ThemeKey      = "dark_mode"

	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	PromptTemplate = `You are a helpful business assistant.
Use the following context to answer the question:
%s

Question: %s
Answer:
`
)
