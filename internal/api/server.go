package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/smazurov/backendshell/internal/api/models"
	"github.com/smazurov/backendshell/internal/events"
	"github.com/smazurov/backendshell/internal/logging"
	"github.com/smazurov/backendshell/internal/process"
	"github.com/smazurov/backendshell/internal/version"
)

// BackendStatus reports the supervised backend. *process.Supervisor
// satisfies it.
type BackendStatus interface {
	Info() process.Info
	Spec() process.Spec
}

// Lifecycle accepts lifecycle requests. *shell.App satisfies it.
type Lifecycle interface {
	Activate()
	Quit()
}

// Windows lists and closes shell windows. *shell.Headless satisfies it.
type Windows interface {
	IDs() []int
	Close(id int) bool
}

// Options configures the control API.
type Options struct {
	Backend           BackendStatus
	BackendURL        string
	Lifecycle         Lifecycle
	Windows           Windows
	EventBus          *events.Bus  // Optional, enables /api/events
	PrometheusHandler http.Handler // Optional Prometheus metrics handler
}

// Server is the local control API.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	options    *Options
	logger     *slog.Logger
}

// NewServer creates the control API with Huma v2 on Go's native routing.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	config := huma.DefaultConfig("Backend Shell API", version.Version)
	config.Info.Description = "Control and status API for the desktop shell and its backend process"
	// Empty servers list will make OpenAPI use relative paths, working with any host
	config.Servers = []*huma.Server{}

	server := &Server{
		api:     humago.New(mux, config),
		mux:     mux,
		options: opts,
		logger:  logging.GetLogger("api"),
	}

	server.api.UseMiddleware(HTTPLoggingMiddleware)

	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	server.registerRoutes()
	if opts.EventBus != nil {
		server.registerSSERoutes()
	}

	return server
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// GetAPI returns the Huma API instance.
func (s *Server) GetAPI() huma.API {
	return s.api
}

// Start serves on addr until Stop is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting control API", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Stop closes the listener and all connections immediately.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("Stopping control API")
	return s.httpServer.Close()
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
	}, func(_ context.Context, _ *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
	}, func(_ context.Context, _ *struct{}) (*models.VersionResponse, error) {
		info := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Version:   info.Version,
				GitCommit: info.GitCommit,
				BuildDate: info.BuildDate,
				BuildID:   info.BuildID,
				GoVersion: info.GoVersion,
				Compiler:  info.Compiler,
				Platform:  info.Platform,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-backend",
		Method:      http.MethodGet,
		Path:        "/api/backend",
		Summary:     "Backend Status",
		Description: "Get the supervised backend's state, command and last exit",
		Tags:        []string{"backend"},
	}, func(_ context.Context, _ *struct{}) (*models.BackendResponse, error) {
		return &models.BackendResponse{Body: s.backendData()}, nil
	})

	s.registerAction("activate", "Activate", "Open a window if none is open, as when the dock icon is clicked",
		func(l Lifecycle) { l.Activate() })
	s.registerAction("quit", "Quit", "Quit the shell, stopping the backend",
		func(l Lifecycle) { l.Quit() })

	s.registerWindowRoutes()
}

func (s *Server) registerWindowRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-windows",
		Method:      http.MethodGet,
		Path:        "/api/app/windows",
		Summary:     "List Windows",
		Description: "List the open shell windows",
		Tags:        []string{"lifecycle"},
		Errors:      []int{503},
	}, func(_ context.Context, _ *struct{}) (*models.WindowsResponse, error) {
		if s.options.Windows == nil {
			return nil, huma.Error503ServiceUnavailable("window control is not available")
		}
		ids := s.options.Windows.IDs()
		if ids == nil {
			ids = []int{}
		}
		return &models.WindowsResponse{Body: models.WindowsData{IDs: ids, Count: len(ids)}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "close-window",
		Method:        http.MethodPost,
		Path:          "/api/app/windows/{id}/close",
		Summary:       "Close Window",
		Description:   "Close one window, as when the user closes it. Closing the last window stops the backend and quits.",
		Tags:          []string{"lifecycle"},
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{404, 503},
	}, func(_ context.Context, input *models.WindowCloseRequest) (*models.ActionResponse, error) {
		if s.options.Windows == nil {
			return nil, huma.Error503ServiceUnavailable("window control is not available")
		}
		if !s.options.Windows.Close(input.ID) {
			return nil, huma.Error404NotFound("window not open")
		}
		return &models.ActionResponse{
			Body: models.ActionData{Status: "accepted", Action: "close-window"},
		}, nil
	})
}

// registerAction registers POST /api/app/{action}, which queues a
// lifecycle event and returns 202 without waiting for it to be handled.
func (s *Server) registerAction(action, summary, description string, apply func(Lifecycle)) {
	huma.Register(s.api, huma.Operation{
		OperationID:   "app-" + action,
		Method:        http.MethodPost,
		Path:          "/api/app/" + action,
		Summary:       summary,
		Description:   description,
		Tags:          []string{"lifecycle"},
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{503},
	}, func(_ context.Context, _ *struct{}) (*models.ActionResponse, error) {
		if s.options.Lifecycle == nil {
			return nil, huma.Error503ServiceUnavailable("lifecycle control is not available")
		}
		apply(s.options.Lifecycle)
		return &models.ActionResponse{
			Body: models.ActionData{Status: "accepted", Action: action},
		}, nil
	})
}

func (s *Server) backendData() models.BackendData {
	data := models.BackendData{
		State: string(process.StateNotRunning),
		URL:   s.options.BackendURL,
	}
	if s.options.Backend == nil {
		return data
	}

	spec := s.options.Backend.Spec()
	info := s.options.Backend.Info()
	data.State = string(info.State)
	data.PID = info.PID
	data.StartCount = info.StartCount
	data.Command = spec.String()
	data.Dir = spec.Dir
	if !info.StartedAt.IsZero() {
		startedAt := info.StartedAt
		data.StartedAt = &startedAt
	}
	if exit := info.LastExit; exit != nil {
		data.LastExit = &models.ExitData{
			PID:      exit.PID,
			ExitCode: exit.Code,
			Signal:   exit.Signal,
			At:       exit.At,
		}
		if exit.Err != nil {
			data.LastExit.Error = exit.Err.Error()
		}
	}
	return data
}
