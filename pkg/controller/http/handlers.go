package http

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/lectern/pkg/domain/types"
	"github.com/secmon-lab/lectern/pkg/service/document"
	"github.com/secmon-lab/lectern/pkg/usecase"
	"github.com/secmon-lab/lectern/pkg/utils/errutil"
	"github.com/secmon-lab/lectern/pkg/utils/safe"
)

// maxUploadSize bounds the multipart form memory buffer
const maxUploadSize = 32 << 20

func healthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) lectureUploadHandler(w http.ResponseWriter, r *http.Request) {
	lectureID, err := lectureIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	file, header, err := uploadedFile(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	defer safe.Close(r.Context(), file)

	result, err := s.uc.UploadLecture(r.Context(), lectureID, header.Filename, file)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, result)
}

func (s *Server) guestUploadHandler(w http.ResponseWriter, r *http.Request) {
	guestID := types.GuestID(chi.URLParam(r, "guest_id"))

	file, header, err := uploadedFile(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	defer safe.Close(r.Context(), file)

	result, err := s.uc.UploadGuest(r.Context(), guestID, header.Filename, file)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, result)
}

type chatRequest struct {
	Query        string `json:"query"`
	SystemPrompt string `json:"system_prompt"`
}

func (s *Server) lectureChatHandler(w http.ResponseWriter, r *http.Request) {
	lectureID, err := lectureIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	req, err := decodeChatRequest(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	result, err := s.uc.ChatLecture(r.Context(), lectureID, req.Query, req.SystemPrompt)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, result)
}

func (s *Server) guestChatHandler(w http.ResponseWriter, r *http.Request) {
	guestID := types.GuestID(chi.URLParam(r, "guest_id"))

	req, err := decodeChatRequest(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	result, err := s.uc.ChatGuest(r.Context(), guestID, req.Query, req.SystemPrompt)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, result)
}

func (s *Server) downloadHandler(w http.ResponseWriter, r *http.Request) {
	path, err := s.uc.Download(r.Context(), chi.URLParam(r, "filename"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	http.ServeFile(w, r, path)
}

func uploadedFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, nil, goerr.Wrap(usecase.ErrEmptyFilename, "request must be multipart/form-data")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, goerr.Wrap(usecase.ErrEmptyFilename, "multipart field 'file' is required")
	}
	return file, header, nil
}

func lectureIDParam(r *http.Request) (types.LectureID, error) {
	raw := chi.URLParam(r, "lecture_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, goerr.Wrap(usecase.ErrInvalidLectureID, "lecture_id is not an integer", goerr.V("lecture_id", raw))
	}
	return types.LectureID(id), nil
}

func decodeChatRequest(r *http.Request) (*chatRequest, error) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, goerr.Wrap(usecase.ErrEmptyQuery, "request body must be JSON with a 'query' field")
	}
	return &req, nil
}

// handleError maps domain errors to a stable status class
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, usecase.ErrEmptyFilename),
		errors.Is(err, usecase.ErrEmptyQuery),
		errors.Is(err, usecase.ErrInvalidLectureID),
		errors.Is(err, usecase.ErrInvalidGuestID),
		errors.Is(err, document.ErrUnsupportedFormat),
		errors.Is(err, document.ErrNoExtractableText):
		status = http.StatusBadRequest
	case errors.Is(err, usecase.ErrFileNotFound):
		status = http.StatusNotFound
	case errors.Is(err, usecase.ErrNoPrincipal):
		status = http.StatusUnauthorized
	}

	errutil.HandleHTTP(r.Context(), w, err, status)
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // header already committed
}
