package embedding_test

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/secmon-lab/lectern/pkg/service/embedding"
)

type llmMock struct {
	calls [][]string
	fn    func(ctx context.Context, dimension int, input []string) ([][]float64, error)
}

func (m *llmMock) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	m.calls = append(m.calls, input)
	return m.fn(ctx, dimension, input)
}

func constantEmbeddings(dim int) func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return func(_ context.Context, _ int, input []string) ([][]float64, error) {
		out := make([][]float64, len(input))
		for i := range input {
			v := make([]float64, dim)
			for j := range v {
				v[j] = float64(i + 1)
			}
			out[i] = v
		}
		return out, nil
	}
}

func TestEmbedPassagesBatchesInOneCall(t *testing.T) {
	mock := &llmMock{fn: constantEmbeddings(4)}
	client, err := embedding.New(mock, embedding.WithDimension(4))
	gt.NoError(t, err)

	texts := []string{"alpha", "beta", "gamma"}
	vectors, err := client.EmbedPassages(context.Background(), texts)
	gt.NoError(t, err)
	gt.Array(t, vectors).Length(3)

	gt.Array(t, mock.calls).Length(1)
	gt.Array(t, mock.calls[0]).Length(3)
	for i, sent := range mock.calls[0] {
		gt.Bool(t, strings.HasPrefix(sent, "search_document: ")).True()
		gt.Bool(t, strings.HasSuffix(sent, texts[i])).True()
	}
}

func TestEmbedQueryUsesQueryPrefix(t *testing.T) {
	mock := &llmMock{fn: constantEmbeddings(4)}
	client, err := embedding.New(mock, embedding.WithDimension(4))
	gt.NoError(t, err)

	vector, err := client.EmbedQuery(context.Background(), "what is a monad")
	gt.NoError(t, err)
	gt.Array(t, vector).Length(4)

	gt.Array(t, mock.calls).Length(1)
	gt.Array(t, mock.calls[0]).Length(1)
	gt.Value(t, mock.calls[0][0]).Equal("search_query: what is a monad")
}

func TestEmbeddingsAreUnitNorm(t *testing.T) {
	mock := &llmMock{fn: constantEmbeddings(8)}
	client, err := embedding.New(mock, embedding.WithDimension(8))
	gt.NoError(t, err)

	vectors, err := client.EmbedPassages(context.Background(), []string{"a", "b"})
	gt.NoError(t, err)
	for _, v := range vectors {
		var norm float64
		for _, x := range v {
			norm += float64(x) * float64(x)
		}
		gt.Bool(t, math.Abs(math.Sqrt(norm)-1.0) < 1e-5).True()
	}
}

func TestEmbedPassagesRejectsEmptyInput(t *testing.T) {
	mock := &llmMock{fn: constantEmbeddings(4)}
	client, err := embedding.New(mock, embedding.WithDimension(4))
	gt.NoError(t, err)

	_, err = client.EmbedPassages(context.Background(), nil)
	gt.Error(t, err)
	gt.Array(t, mock.calls).Length(0)
}

func TestEmbedPassagesCountMismatch(t *testing.T) {
	mock := &llmMock{fn: func(_ context.Context, _ int, _ []string) ([][]float64, error) {
		return [][]float64{{1, 0, 0, 0}}, nil
	}}
	client, err := embedding.New(mock, embedding.WithDimension(4))
	gt.NoError(t, err)

	_, err = client.EmbedPassages(context.Background(), []string{"a", "b"})
	gt.Error(t, err)
}

func TestEmbedQueryRejectsEmptyText(t *testing.T) {
	mock := &llmMock{fn: constantEmbeddings(4)}
	client, err := embedding.New(mock, embedding.WithDimension(4))
	gt.NoError(t, err)

	_, err = client.EmbedQuery(context.Background(), "")
	gt.Error(t, err)
	gt.Array(t, mock.calls).Length(0)
}
