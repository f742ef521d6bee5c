package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/BaraaAbuhalima/counter-app/internal/runtime"
	"github.com/BaraaAbuhalima/counter-app/internal/server/http/controllers"
	countersvc "github.com/BaraaAbuhalima/counter-app/internal/services/counters"
	logpkg "github.com/BaraaAbuhalima/counter-app/pkg/log"
)

type Server struct {
	rt     *runtime.Runtime
	srv    *http.Server
	lis    net.Listener
	logger logpkg.Logger
}

// New builds the HTTP gateway. A nil svc gets a service over rt.
func New(rt *runtime.Runtime, svc *countersvc.Service, logger logpkg.Logger) *Server {
	if logger == nil {
		logger = logpkg.GetDefaultLogger()
	}
	logger = logger.WithComponent("http")
	if svc == nil {
		svc = countersvc.NewWithLogger(rt, logger)
	}
	mux := http.NewServeMux()
	controllers.NewControllerRegistry(rt, svc, logger).RegisterAllRoutes(mux)

	c := cors.New(cors.Options{
		AllowedOrigins: rt.Config().AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	})
	handler := withRequestID(withAccessLog(c.Handler(mux), logger))

	return &Server{
		rt:     rt,
		logger: logger,
		srv: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ErrorLog:          logpkg.ToStdLogger(logger, logpkg.WarnLevel),
		},
	}
}

// Handler exposes the full middleware chain, mainly for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	s.logger.Info("http listening", logpkg.Str("addr", l.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// Addr returns the bound listener address once ListenAndServe has started.
func (s *Server) Addr() net.Addr {
	if s.lis == nil {
		return nil
	}
	return s.lis.Addr()
}

func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}
