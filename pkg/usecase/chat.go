package usecase

import (
	"context"
	"sort"

	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/lectern/pkg/domain/model"
	"github.com/secmon-lab/lectern/pkg/domain/types"
)

// ChatResult carries the generated answer and the provenance of the
// chunks it was grounded on
type ChatResult struct {
	Response string   `json:"response"`
	Sources  []string `json:"sources"`
}

// ChatLecture answers a question against the lecture's collection
func (uc *UseCases) ChatLecture(ctx context.Context, lectureID types.LectureID, query, systemPrompt string) (*ChatResult, error) {
	if err := lectureID.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidLectureID, err.Error())
	}
	return uc.chat(ctx, types.LectureCollection(lectureID), query, systemPrompt)
}

// ChatGuest answers a question against a guest session's collection
func (uc *UseCases) ChatGuest(ctx context.Context, guestID types.GuestID, query, systemPrompt string) (*ChatResult, error) {
	if err := guestID.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidGuestID, err.Error())
	}
	return uc.chat(ctx, types.GuestCollection(guestID), query, systemPrompt)
}

func (uc *UseCases) chat(ctx context.Context, collection types.CollectionKey, query, systemPrompt string) (*ChatResult, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	vector, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query")
	}

	chunks, err := uc.vectorStore.Search(ctx, collection, vector, uc.topK)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search collection", goerr.V("collection", collection))
	}

	answer, err := uc.generator.Answer(ctx, query, chunks, systemPrompt)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate answer", goerr.V("collection", collection))
	}

	return &ChatResult{
		Response: answer,
		Sources:  distinctSources(chunks),
	}, nil
}

// distinctSources returns the sorted set of provenance tags. Always
// non-nil so the JSON field encodes as [] rather than null.
func distinctSources(chunks []*model.ScoredChunk) []string {
	seen := make(map[string]struct{}, len(chunks))
	sources := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if _, ok := seen[c.Source]; ok {
			continue
		}
		seen[c.Source] = struct{}{}
		sources = append(sources, c.Source)
	}
	sort.Strings(sources)
	return sources
}
