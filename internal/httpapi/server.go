package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"tutord/internal/evaluator"
	"tutord/internal/history"
	"tutord/internal/lessons"
	"tutord/internal/manager"
	"tutord/internal/progress"
	"tutord/internal/registry"
	"tutord/pkg/types"
)

// Service is the model-management surface required by the HTTP layer.
// *manager.Manager satisfies it.
type Service interface {
	Activate(ctx context.Context, key string, role registry.Role) (manager.ReadyInfo, error)
	Deactivate(key string) error
	Generate(ctx context.Context, role registry.Role, req manager.GenerationRequest) (manager.GeneratedText, error)
	Status() types.StatusResponse
	Registry() *registry.Registry
	ClearResources()
}

// Deps bundles everything the router serves. Lessons, Progress, and
// Evaluator are optional; their routes return 404 when absent.
type Deps struct {
	Service   Service
	History   *history.Store
	Lessons   *lessons.Manager
	Progress  *progress.Tracker
	Evaluator *evaluator.Evaluator
	Log       zerolog.Logger
}

type server struct {
	svc  Service
	hist *history.Store
	les  *lessons.Manager
	prog *progress.Tracker
	eval *evaluator.Evaluator
	log  zerolog.Logger
}

// NewMux builds the full route tree.
func NewMux(d Deps) http.Handler {
	s := &server{
		svc:  d.Service,
		hist: d.History,
		les:  d.Lessons,
		prog: d.Progress,
		eval: d.Evaluator,
		log:  d.Log,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/readyz", s.handleReadyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/models", s.handleModels)
		r.Post("/models/activate", s.handleActivate)
		r.Post("/models/deactivate", s.handleDeactivate)
		r.Post("/clear-memory", s.handleClearMemory)

		r.Post("/chat", s.handleChat)
		r.Post("/evaluate", s.handleEvaluate)
		r.Get("/languages", s.handleLanguages)

		if s.les != nil {
			r.Route("/lessons", func(r chi.Router) {
				r.Get("/grades", s.handleGrades)
				r.Get("/search", s.handleSearch)
				r.Post("/answer", s.handleAnswer)
				r.Post("/hint", s.handleHint)
				r.Get("/{grade}/subjects", s.handleSubjects)
				r.Get("/{grade}/{subject}", s.handleLessonList)
				r.Get("/{grade}/{subject}/{lesson}", s.handleLesson)
				r.Get("/{grade}/{subject}/{lesson}/next", s.handleNextLessons)
				r.Get("/{grade}/{subject}/{lesson}/sections/{section}", s.handleSection)
			})
		}

		if s.prog != nil {
			r.Route("/progress", func(r chi.Router) {
				r.Post("/start", s.handleProgressStart)
				r.Post("/section", s.handleProgressSection)
				r.Post("/complete", s.handleProgressComplete)
				r.Post("/study-time", s.handleStudyTime)
				r.Get("/{user}", s.handleUserProgress)
				r.Get("/{user}/dashboard", s.handleDashboard)
				r.Get("/{user}/completed", s.handleCompleted)
				r.Delete("/{user}", s.handleDeleteProgress)
			})
		}
	})

	return r
}

// handleReadyz reports 200 once a model is bound to the chat role and
// ready.
func (s *server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	st := s.svc.Status()
	key, bound := st.Roles[string(registry.RoleChat)]
	if bound {
		for _, inst := range st.Instances {
			if inst.Model == key && inst.State == "ready" {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ready"))
				return
			}
		}
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	w.Write([]byte("loading"))
}
