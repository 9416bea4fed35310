package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/gt"

	controller "github.com/secmon-lab/lectern/pkg/controller/http"
	"github.com/secmon-lab/lectern/pkg/domain/model"
	"github.com/secmon-lab/lectern/pkg/repository/memory"
	"github.com/secmon-lab/lectern/pkg/usecase"
)

var testSecret = []byte("test-signing-secret")

type stubEmbedder struct {
	queryCalls int
}

func (m *stubEmbedder) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0, 0}
	}
	return out, nil
}

func (m *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	m.queryCalls++
	return []float32{1, 0, 0, 0}, nil
}

type stubGenerator struct{}

func (m *stubGenerator) Answer(ctx context.Context, query string, chunks []*model.ScoredChunk, systemPrompt string) (string, error) {
	if len(chunks) == 0 {
		return "I have no materials on that.", nil
	}
	return "Based on the materials: " + chunks[0].Text, nil
}

func newTestServer(t *testing.T) (*controller.Server, *stubEmbedder) {
	t.Helper()
	embedder := &stubEmbedder{}
	uc := usecase.New(memory.New(), embedder, &stubGenerator{},
		usecase.WithUploadDir(t.TempDir()),
	)
	srv, err := controller.New(uc, testSecret)
	gt.NoError(t, err).Required()
	return srv, embedder
}

func signToken(t *testing.T, secret []byte, userID int) string {
	t.Helper()
	token, err := jwt.NewBuilder().
		Claim("user_id", userID).
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(time.Hour)).
		Build()
	gt.NoError(t, err).Required()

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, secret))
	gt.NoError(t, err).Required()
	return string(signed)
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	gt.NoError(t, err).Required()
	_, err = io.WriteString(fw, content)
	gt.NoError(t, err).Required()
	gt.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealthIsPublic(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	gt.Number(t, rec.Code).Equal(http.StatusOK)
	gt.Bool(t, strings.Contains(rec.Body.String(), `"status":"ok"`)).True()
}

func TestChatWithoutTokenNeverReachesStore(t *testing.T) {
	srv, embedder := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/lectures/5/chat",
		strings.NewReader(`{"query":"hello"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	gt.Number(t, rec.Code).Equal(http.StatusUnauthorized)
	gt.Number(t, embedder.queryCalls).Equal(0)

	var body map[string]string
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	gt.Bool(t, body["error"] != "").True()
}

func TestChatWithWrongSecret(t *testing.T) {
	srv, embedder := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/lectures/5/chat",
		strings.NewReader(`{"query":"hello"}`))
	req.Header.Set("Authorization", "Bearer "+signToken(t, []byte("wrong-secret"), 7))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	gt.Number(t, rec.Code).Equal(http.StatusUnauthorized)
	gt.Number(t, embedder.queryCalls).Equal(0)
}

func TestChatWithMalformedHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, header := range []string{"Bearer", "Basic dXNlcjpwYXNz", "bearer token"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/lectures/5/chat",
			strings.NewReader(`{"query":"hello"}`))
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		gt.Number(t, rec.Code).Equal(http.StatusUnauthorized)
	}
}

func TestPreflightBypassesAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/lectures/5/chat", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	gt.Bool(t, rec.Code == http.StatusUnauthorized).False()
}

func TestLectureUploadAndChat(t *testing.T) {
	srv, _ := newTestServer(t)
	token := signToken(t, testSecret, 7)

	body, contentType := multipartBody(t, "notes.txt", "The capital of France is Paris.")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/lectures/12/upload", body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	gt.Number(t, rec.Code).Equal(http.StatusOK)

	var uploadResp usecase.UploadResult
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploadResp))
	gt.Value(t, uploadResp.Filename).Equal("user_7_lecture_12_notes.txt")
	gt.Value(t, uploadResp.CollectionName).Equal("lecture_12")
	gt.Number(t, uploadResp.ChunksAdded).Equal(1)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/lectures/12/chat",
		strings.NewReader(`{"query":"What is the capital of France?"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	gt.Number(t, rec.Code).Equal(http.StatusOK)

	var chatResp usecase.ChatResult
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chatResp))
	gt.Bool(t, strings.Contains(chatResp.Response, "Paris")).True()
	gt.Array(t, chatResp.Sources).Equal([]string{"user_7_lecture_12_notes.txt"})
}

func TestGuestFlowNeedsNoToken(t *testing.T) {
	srv, _ := newTestServer(t)

	body, contentType := multipartBody(t, "notes.txt", "The capital of France is Paris.")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/guest/g1/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	gt.Number(t, rec.Code).Equal(http.StatusOK)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/guest/g1/chat",
		strings.NewReader(`{"query":"What is the capital of France?"}`))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	gt.Number(t, rec.Code).Equal(http.StatusOK)

	var chatResp usecase.ChatResult
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chatResp))
	gt.Array(t, chatResp.Sources).Equal([]string{"guest_g1_notes.txt"})
}

func TestInvalidLectureID(t *testing.T) {
	srv, _ := newTestServer(t)
	token := signToken(t, testSecret, 7)

	for _, id := range []string{"0", "-3", "abc"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/lectures/"+id+"/chat",
			strings.NewReader(`{"query":"hello"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	}
}

func TestEmptyQueryRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/guest/g1/chat",
		strings.NewReader(`{"query":""}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
}

func TestUnsupportedUploadRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	body, contentType := multipartBody(t, "image.png", "not really an image")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/guest/g1/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
}

func TestDownload(t *testing.T) {
	srv, _ := newTestServer(t)
	token := signToken(t, testSecret, 7)

	body, contentType := multipartBody(t, "notes.txt", "The capital of France is Paris.")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/guest/g1/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	gt.Number(t, rec.Code).Equal(http.StatusOK)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/download/guest_g1_notes.txt", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	gt.Number(t, rec.Code).Equal(http.StatusOK)
	gt.Value(t, rec.Body.String()).Equal("The capital of France is Paris.")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/download/missing.txt", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	gt.Number(t, rec.Code).Equal(http.StatusNotFound)
}
