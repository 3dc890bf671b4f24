package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/mind-engage/gradecalc/internal/session"
)

// NewRouter serves the grade API. ctrl must be built with QueryConfirmer so
// that DELETE /api/grades honours ?confirm=true.
func NewRouter(ctrl *session.Controller, log zerolog.Logger, origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, RequestLogger(log), middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(ar chi.Router) {
		ar.Route("/grades", func(gr chi.Router) {
			gr.Get("/", ListGradesHandler(ctrl))
			gr.Post("/", SubmitGradeHandler(ctrl))
			gr.Delete("/", ClearGradesHandler(ctrl))
			gr.Delete("/{id}", DeleteGradeHandler(ctrl))
		})
		ar.Get("/session", GetSessionHandler(ctrl))
		ar.Post("/session/reset", ResetSessionHandler(ctrl))
		ar.Post("/session/dismiss", DismissAlertHandler(ctrl))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	return r
}

// RequestLogger logs one zerolog event per request.
func RequestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("elapsed", time.Since(start)).
					Str("request_id", middleware.GetReqID(r.Context())).
					Msg("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
