// Package httpapi serves document assembly over HTTP with gin.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	guide2pdf "github.com/alnah/go-guide2pdf"
	"github.com/alnah/go-guide2pdf/internal/logger"
)

// Assembler builds one document per request.
type Assembler interface {
	Assemble(ctx context.Context, req guide2pdf.Request) (*guide2pdf.Document, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HTTPRecorder observes finished HTTP requests.
type HTTPRecorder interface {
	RecordHTTPRequest(method, path string, statusCode int, duration time.Duration)
}

// Config holds the optional parts of the router.
type Config struct {
	ServiceName    string
	AllowedOrigins []string     // CORS; empty disables CORS headers
	MaxBodyBytes   int64        // 0 = unlimited
	Logger         *logger.Logger
	Health         Pinger       // checked by /healthz when set
	Metrics        HTTPRecorder // per-request metrics when set
	MetricsHandler http.Handler // served on /metrics when set
}

// NewRouter wires the routes and middleware.
func NewRouter(asm Assembler, cfg Config) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	name := cfg.ServiceName
	if name == "" {
		name = "guide2pdf"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(name))
	r.Use(RequestLogger(log))
	r.Use(Metrics(cfg.Metrics))
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(CORS(cfg.AllowedOrigins))
	}

	h := &handler{asm: asm, health: cfg.Health, log: log}

	r.POST("/assemble", BodyLimit(cfg.MaxBodyBytes), h.assemble)
	r.GET("/header-footer", h.headerFooter)
	r.GET("/healthz", h.healthz)
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}
	return r
}

// Server runs the router on an http.Server with graceful shutdown.
type Server struct {
	srv *http.Server
	log *logger.Logger
}

// NewServer creates a server listening on addr.
func NewServer(addr string, handler http.Handler, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most shutdownTimeout.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
