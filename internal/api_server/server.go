package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/fdam/assessment-planner/internal/config"
	"github.com/fdam/assessment-planner/internal/events"
	handlers "github.com/fdam/assessment-planner/internal/handlers/v1alpha1"
	"github.com/fdam/assessment-planner/internal/inference"
	"github.com/fdam/assessment-planner/internal/orchestrator"
	"github.com/fdam/assessment-planner/internal/service"
	"github.com/fdam/assessment-planner/internal/store"
	"github.com/fdam/assessment-planner/pkg/metrics"
	"github.com/fdam/assessment-planner/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg      *config.Config
	store    store.Store
	listener net.Listener
	producer *events.EventProducer
}

// New returns a new instance of the assessment-planner server.
func New(
	cfg *config.Config,
	store store.Store,
	listener net.Listener,
	producer *events.EventProducer,
) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		listener: listener,
		producer: producer,
	}
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegisterDefault()

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.Service.CorsOrigins,
			AllowedMethods:   []string{"GET", "PUT", "POST", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	inferenceCfg := inference.Config{
		BaseURL: s.cfg.Inference.BaseURL,
		ApiKey:  s.cfg.Inference.ApiKey,
		Timeout: s.cfg.Inference.Timeout,
	}

	assessmentService := service.NewAssessmentService(
		s.store,
		inference.New(inferenceCfg),
		orchestrator.PolicyFromConfig(s.cfg),
		s.producer,
	)
	chatService := service.NewChatService(
		s.store,
		inference.NewChat(inferenceCfg),
		assessmentService,
		s.producer,
	)

	handlers.NewServiceHandler(assessmentService, chatService).RegisterRoutes(router)

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}
