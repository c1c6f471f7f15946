package httpserver

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"
)

const readHeaderTimeout = 10 * time.Second

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

func New(address string, handler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              address,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
		logger: logger,
	}
}

func (s *Server) Address() string {
	return s.httpServer.Addr
}

func (s *Server) Start() error {
	s.logger.Info("server starting", "address", s.httpServer.Addr)

	err := s.httpServer.ListenAndServe()
	if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return s.httpServer.Shutdown(ctx)
}
