package usecase

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/lectern/pkg/domain/model/auth"
	"github.com/secmon-lab/lectern/pkg/domain/types"
	"github.com/secmon-lab/lectern/pkg/service/document"
	"github.com/secmon-lab/lectern/pkg/utils/logging"
	"github.com/secmon-lab/lectern/pkg/utils/safe"
)

// UploadResult reports what an upload added to a collection
type UploadResult struct {
	Filename       string `json:"filename"`
	ChunksAdded    int    `json:"chunks_added"`
	CollectionName string `json:"collection_name"`
}

// UploadLecture ingests a document into the lecture's collection. The
// authenticated principal is taken from ctx and recorded in the stored
// filename so provenance survives across uploads by different users.
func (uc *UseCases) UploadLecture(ctx context.Context, lectureID types.LectureID, filename string, r io.Reader) (*UploadResult, error) {
	if err := lectureID.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidLectureID, err.Error())
	}
	principal := auth.PrincipalFromContext(ctx)
	if principal == nil {
		return nil, ErrNoPrincipal
	}

	prefix := fmt.Sprintf("user_%d_lecture_%d", principal.UserID, lectureID)
	return uc.upload(ctx, types.LectureCollection(lectureID), prefix, filename, r)
}

// UploadGuest ingests a document into a guest session's collection
func (uc *UseCases) UploadGuest(ctx context.Context, guestID types.GuestID, filename string, r io.Reader) (*UploadResult, error) {
	if err := guestID.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidGuestID, err.Error())
	}

	prefix := "guest_" + guestID.String()
	return uc.upload(ctx, types.GuestCollection(guestID), prefix, filename, r)
}

// upload saves the stream, extracts and embeds chunks, and indexes them.
// The saved file is removed on every failure past the save so the upload
// directory only holds documents that are actually indexed.
func (uc *UseCases) upload(ctx context.Context, collection types.CollectionKey, prefix, filename string, r io.Reader) (*UploadResult, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	safeName := sanitizeFilename(filename)
	if safeName == "" {
		return nil, goerr.Wrap(ErrEmptyFilename, "filename is empty after sanitization", goerr.V("filename", filename))
	}
	if !document.IsSupported(safeName) {
		return nil, goerr.Wrap(document.ErrUnsupportedFormat, "unsupported file extension", goerr.V("filename", safeName))
	}

	storedName := prefix + "_" + safeName
	path, err := uc.saveUpload(ctx, storedName, r)
	if err != nil {
		return nil, err
	}

	chunks, err := uc.pipeline.Process(ctx, path, storedName)
	if err != nil {
		safe.Remove(ctx, path)
		return nil, goerr.Wrap(err, "failed to process document", goerr.V("filename", storedName))
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := uc.embedder.EmbedPassages(ctx, texts)
	if err != nil {
		safe.Remove(ctx, path)
		return nil, goerr.Wrap(err, "failed to embed document chunks", goerr.V("filename", storedName))
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	if err := uc.vectorStore.GetOrCreate(ctx, collection); err != nil {
		safe.Remove(ctx, path)
		return nil, goerr.Wrap(err, "failed to prepare collection", goerr.V("collection", collection))
	}
	if err := uc.vectorStore.Insert(ctx, collection, chunks); err != nil {
		safe.Remove(ctx, path)
		return nil, goerr.Wrap(err, "failed to index document chunks", goerr.V("collection", collection))
	}

	logging.From(ctx).Info("document indexed",
		"filename", storedName,
		"collection", collection.String(),
		"chunks", len(chunks))

	return &UploadResult{
		Filename:       storedName,
		ChunksAdded:    len(chunks),
		CollectionName: collection.String(),
	}, nil
}

func (uc *UseCases) saveUpload(ctx context.Context, storedName string, r io.Reader) (string, error) {
	if err := os.MkdirAll(uc.uploadDir, 0o755); err != nil {
		return "", goerr.Wrap(err, "failed to create upload directory", goerr.V("dir", uc.uploadDir))
	}

	path := filepath.Join(uc.uploadDir, storedName)
	f, err := os.Create(path)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create upload file", goerr.V("path", path))
	}

	if _, err := io.Copy(f, r); err != nil {
		safe.Close(ctx, f)
		safe.Remove(ctx, path)
		return "", goerr.Wrap(err, "failed to write upload file", goerr.V("path", path))
	}
	if err := f.Close(); err != nil {
		safe.Remove(ctx, path)
		return "", goerr.Wrap(err, "failed to flush upload file", goerr.V("path", path))
	}

	return path, nil
}

// Download resolves a previously uploaded file under the upload
// directory. The name is sanitized again so the handler can pass the
// raw path segment through.
func (uc *UseCases) Download(ctx context.Context, filename string) (string, error) {
	safeName := sanitizeFilename(filename)
	if safeName == "" {
		return "", ErrEmptyFilename
	}

	path := filepath.Join(uc.uploadDir, safeName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", goerr.Wrap(ErrFileNotFound, "no such upload", goerr.V("filename", safeName))
		}
		return "", goerr.Wrap(err, "failed to stat upload", goerr.V("path", path))
	}

	return path, nil
}
