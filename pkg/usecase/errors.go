package usecase

import "github.com/m-mizutani/goerr/v2"

var (
	ErrEmptyFilename    = goerr.New("filename must not be empty")
	ErrEmptyQuery       = goerr.New("query must not be empty")
	ErrInvalidLectureID = goerr.New("lecture ID must be a positive integer")
	ErrInvalidGuestID   = goerr.New("guest ID contains invalid characters")
	ErrFileNotFound     = goerr.New("file not found")
	ErrNoPrincipal      = goerr.New("no authenticated principal in context")
)
