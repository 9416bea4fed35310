package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/lectern/pkg/usecase"
	"github.com/secmon-lab/lectern/pkg/utils/logging"
)

type Server struct {
	router *chi.Mux
	uc     *usecase.UseCases
	secret []byte
}

type Options func(*Server)

func New(uc *usecase.UseCases, secret []byte, opts ...Options) (*Server, error) {
	if uc == nil {
		return nil, goerr.New("use cases are required")
	}
	if len(secret) == 0 {
		return nil, goerr.New("JWT signing secret is required")
	}

	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
		secret: secret,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)
	r.Use(authGate(s.secret))

	r.Get("/health", healthHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/lectures/{lecture_id}", func(r chi.Router) {
			r.Post("/upload", s.lectureUploadHandler)
			r.Post("/chat", s.lectureChatHandler)
		})
		r.Route("/guest/{guest_id}", func(r chi.Router) {
			r.Post("/upload", s.guestUploadHandler)
			r.Post("/chat", s.guestChatHandler)
		})
		r.Get("/download/{filename}", s.downloadHandler)
	})

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
