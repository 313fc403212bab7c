// Package httpapi exposes the verification and administration surfaces
// over HTTP. Policy lives in the services; handlers only parse, call,
// and map sentinels to statuses.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/janus-access/server/internal/janus/service"
)

// maxRequestBody caps request bodies. Face verification carries a
// descriptor plus an optional base64 capture, so the cap is generous.
const maxRequestBody = 4 << 20

type Dependencies struct {
	Logger *zap.Logger
	Addr   string

	Auth   *service.AuthService
	Users  *service.UserService
	Doors  *service.DoorService
	Verify *service.VerificationService
	Logs   *service.LogService
}

type Server struct {
	httpServer *http.Server
	logger     *zap.Logger

	auth   *service.AuthService
	users  *service.UserService
	doors  *service.DoorService
	verify *service.VerificationService
	logs   *service.LogService
}

func NewServer(d Dependencies) *Server {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		logger: logger,
		auth:   d.Auth,
		users:  d.Users,
		doors:  d.Doors,
		verify: d.Verify,
		logs:   d.Logs,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(maxRequestBody))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)

		// Device-facing verification surface.
		r.Post("/verify/code", s.handleVerifyCode)
		r.Post("/verify/face", s.handleVerifyFace)
		r.Post("/verify/double", s.handleVerifyDouble)
		r.Post("/motion", s.handleMotion)

		// Administration and log surfaces require a session.
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/logs", s.handleQueryLogs)
			r.Get("/logs/{id}/image", s.handleLogImage)

			r.Route("/users", func(r chi.Router) {
				r.Post("/", s.handleCreateUser)
				r.Get("/", s.handleListUsers)
				r.Get("/{id}", s.handleGetUser)
				r.Put("/{id}", s.handleUpdateUser)
				r.Delete("/{id}", s.handleDeactivateUser)
			})

			r.Route("/doors", func(r chi.Router) {
				r.Post("/", s.handleCreateDoor)
				r.Get("/", s.handleListDoors)
				r.Get("/{id}", s.handleGetDoor)
				r.Put("/{id}", s.handleUpdateDoor)
				r.Delete("/{id}", s.handleDeactivateDoor)

				r.Post("/{id}/access/{userID}", s.handleGrantAccess)
				r.Delete("/{id}/access/{userID}", s.handleRevokeAccess)
			})
		})
	})

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
