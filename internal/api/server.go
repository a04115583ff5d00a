package api

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/mkarrel/kinotek/internal/auth"
	"github.com/mkarrel/kinotek/internal/catalog"
	"github.com/mkarrel/kinotek/internal/config"
	"github.com/mkarrel/kinotek/internal/upload"
	"github.com/mkarrel/kinotek/internal/users"
	"github.com/mkarrel/kinotek/internal/version"
)

type Server struct {
	cfg     *config.Config
	ver     version.Info
	catalog *catalog.Service
	uploads *upload.Router
	users   *users.Store
	auth    *auth.Service
	authMW  *auth.Middleware
	limiter *ipLimiter
	router  chi.Router
	log     *log.Logger
}

func NewServer(cfg *config.Config, ver version.Info, catalogSvc *catalog.Service,
	uploads *upload.Router, userStore *users.Store, authSvc *auth.Service,
	logger *log.Logger) *Server {

	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		cfg:     cfg,
		ver:     ver,
		catalog: catalogSvc,
		uploads: uploads,
		users:   userStore,
		auth:    authSvc,
		authMW:  auth.NewMiddleware(authSvc),
		limiter: newIPLimiter(),
		log:     logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(securityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           86400,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		r.Route("/auth", func(r chi.Router) {
			r.With(s.limiter.Limit).Post("/register", s.handleRegister)
			r.With(s.limiter.Limit).Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
		})

		r.Get("/movies", s.handleListMovies)

		// Mutating catalog operations are admin-only.
		r.Group(func(r chi.Router) {
			r.Use(s.authMW.RequireAuth)
			r.Use(s.authMW.RequireAdmin)
			r.Post("/movies/add", s.handleAddMovie)
			r.Post("/movies/edit/{id}", s.handleEditMovie)
			r.Delete("/movies/delete/{id}", s.handleDeleteMovie)
		})
	})

	// Uploaded media and posters.
	uploadsFS := http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.cfg.UploadDir())))
	r.Handle("/uploads/*", uploadsFS)

	// Frontend assets.
	r.Handle("/*", http.FileServer(http.Dir(s.cfg.WebDir)))

	return r
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
