package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"lesson-quiz-service/internal/app"
	"lesson-quiz-service/internal/logger"
)

// NewRouter mounts the health check, the quiz summary endpoint and the websocket view channel.
func NewRouter(service *app.QuizService, ws *WSHandler, allowedOrigins []string, log *logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/lessons/{lessonID}/quiz", summaryHandler(service, log))
	r.Get("/ws", ws.ServeWS)
	return r
}

func summaryHandler(service *app.QuizService, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lessonID := chi.URLParam(r, "lessonID")
		summary, err := service.Summary(r.Context(), lessonID)
		if err != nil {
			log.Error("quiz summary failed", "lesson_id", lessonID, "request_id", middleware.GetReqID(r.Context()), "error", err)
			writeJSON(w, http.StatusInternalServerError, errorPayload{Message: "failed to load quiz"})
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
