package rag

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"business-chatbot/internal/llmservice"
	"business-chatbot/internal/models"
)

// TopK is the number of documents retrieved for each question.
const TopK = 3

type Stage string

const (
	StageRetrieval  Stage = "retrieval"
	StageGeneration Stage = "generation"
)

var (
	sentinelRegex = regexp.MustCompile(models.SentinelRegex)
	thinkRegex    = regexp.MustCompile(models.ThinkTag)
)

// Retriever returns up to n document texts similar to text, best match first.
type Retriever interface {
	Query(ctx context.Context, text string, n int) ([]string, error)
}

// Error reports which step of Answer failed. Source is the provider name for
// generation failures and "Retrieval" otherwise.
type Error struct {
	Stage  Stage
	Source string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error: %v", e.Source, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type RAG struct {
	retriever Retriever
	generator llmservice.Generator
}

func New(retriever Retriever, generator llmservice.Generator) *RAG {
	return &RAG{retriever: retriever, generator: generator}
}

// Answer retrieves context for question, asks the generator once and
// returns the cleaned answer.
func (r *RAG) Answer(ctx context.Context, question string) (string, error) {
	docs, err := r.retriever.Query(ctx, question, TopK)
	if err != nil {
		return "", &Error{Stage: StageRetrieval, Source: "Retrieval", Err: err}
	}
	log.Debug().Int("documents", len(docs)).Msg("Retrieved context")

	prompt := BuildPrompt(strings.Join(docs, models.ContextSeparator), question)

	raw, err := r.generator.Generate(ctx, prompt)
	if err != nil {
		return "", &Error{Stage: StageGeneration, Source: r.generator.Name(), Err: err}
	}
	return Clean(raw), nil
}

func BuildPrompt(context, question string) string {
	return fmt.Sprintf(models.PromptTemplate, context, question)
}

// Clean strips sentence delimiters and reasoning blocks that some models
// emit, then trims surrounding whitespace.
func Clean(s string) string {
	s = thinkRegex.ReplaceAllString(s, "")
	s = sentinelRegex.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
