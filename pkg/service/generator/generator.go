package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"

	"github.com/secmon-lab/lectern/pkg/domain/model"
)

// ErrGenerationBlocked indicates the model returned no candidate text,
// typically because a safety filter suppressed the response. It is
// distinct from transport failures so callers can map it to a client
// visible message instead of a server error.
var ErrGenerationBlocked = goerr.New("response was blocked by the model")

// DefaultSystemPrompt is used when the caller does not supply one.
// A caller-supplied prompt replaces it entirely.
const DefaultSystemPrompt = `You are a helpful teaching assistant. Answer the user's question using the provided reference materials. Ground your answer in the references whenever they are relevant, and cite the source name when you draw on a reference. If the references do not cover the question, say so and answer from general knowledge.`

// Service generates grounded answers from retrieved chunks
type Service struct {
	llmClient gollem.LLMClient
}

// New creates an answer generator with the provided LLM client
func New(llmClient gollem.LLMClient) (*Service, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	return &Service{llmClient: llmClient}, nil
}

// Answer generates a response to query grounded in chunks. An empty
// systemPrompt selects DefaultSystemPrompt. chunks may be empty, in
// which case the model is told no reference materials are available.
func (s *Service) Answer(ctx context.Context, query string, chunks []*model.ScoredChunk, systemPrompt string) (string, error) {
	if query == "" {
		return "", goerr.New("query must not be empty")
	}
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	session, err := s.llmClient.NewSession(ctx,
		gollem.WithSessionSystemPrompt(systemPrompt),
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	prompt := buildUserPrompt(query, chunks)

	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate content from LLM")
	}
	if resp == nil || len(resp.Texts) == 0 || strings.TrimSpace(resp.Texts[0]) == "" {
		return "", ErrGenerationBlocked
	}

	return strings.TrimSpace(resp.Texts[0]), nil
}

func buildUserPrompt(query string, chunks []*model.ScoredChunk) string {
	var sb strings.Builder

	sb.WriteString("## Reference materials\n\n")
	if len(chunks) == 0 {
		sb.WriteString("No reference materials are available for this question.\n")
	} else {
		for i, chunk := range chunks {
			fmt.Fprintf(&sb, "### Reference %d (source: %s)\n%s\n\n", i+1, chunk.Source, chunk.Text)
		}
	}

	sb.WriteString("## Question\n\n")
	sb.WriteString(query)
	sb.WriteString("\n\n## Answer\n")

	return sb.String()
}
