package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	guide2pdf "github.com/alnah/go-guide2pdf"
	"github.com/alnah/go-guide2pdf/internal/assets"
	"github.com/alnah/go-guide2pdf/internal/auth"
	"github.com/alnah/go-guide2pdf/internal/config"
	"github.com/alnah/go-guide2pdf/internal/httpapi"
	"github.com/alnah/go-guide2pdf/internal/logger"
	"github.com/alnah/go-guide2pdf/internal/metrics"
	"github.com/alnah/go-guide2pdf/internal/store"
	"github.com/alnah/go-guide2pdf/internal/telemetry"
)

// tracingFlushTimeout bounds the export of buffered spans at shutdown.
const tracingFlushTimeout = 5 * time.Second

// app is the wired service: storage, browsers, assembler and router.
type app struct {
	router  http.Handler
	store   *store.Store
	pool    *guide2pdf.ConverterPool
	metrics *metrics.Collector
	log     *logger.Logger
}

// newApp wires every collaborator from cfg. Browsers start lazily, on the
// first text segment.
func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	if cfg.Storage.WorkDir != "" {
		if err := os.MkdirAll(cfg.Storage.WorkDir, 0o750); err != nil {
			return nil, fmt.Errorf("%w: work dir: %v", errStorage, err)
		}
	}

	styles, err := assets.NewStyleResolver(cfg.Render.StyleDir)
	if err != nil {
		return nil, err
	}
	css, err := styles.LoadStyle(cfg.Render.Style)
	if err != nil {
		return nil, err
	}

	users, err := newUserResolver(cfg.Auth)
	if err != nil {
		return nil, err
	}
	if cfg.Auth.DevUser != "" {
		log.Warn("session checks disabled, every request acts as the dev user", "user", cfg.Auth.DevUser)
	}

	st, err := store.Open(ctx, cfg.Storage.Driver, cfg.Storage.DSN, store.Options{
		PDFDir:  cfg.Storage.PDFDir,
		WorkDir: cfg.Storage.WorkDir,
		Logger:  log,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errStorage, err)
	}

	poolSize := guide2pdf.ResolvePoolSize(cfg.Converter.Workers)
	converterCfg := guide2pdf.ConverterConfig{
		BinaryPath: cfg.Converter.BinaryPath,
		NoSandbox:  cfg.Converter.NoSandbox,
		Timeout:    cfg.Converter.Timeout.Std(),
		WorkDir:    cfg.Storage.WorkDir,
	}
	pool := guide2pdf.NewConverterPool(poolSize, func() guide2pdf.PDFConverter {
		return guide2pdf.NewRodConverter(converterCfg)
	})

	m := metrics.New()
	m.SetConverterPoolSize(poolSize)

	asm, err := guide2pdf.NewAssembler(guide2pdf.Collaborators{
		Users:     users,
		Templates: st,
		Variables: st,
		HTML:      guide2pdf.NewTemplateHTMLRenderer(css),
		Converter: pool,
		PDFs:      st,
	},
		guide2pdf.WithLogger(log),
		guide2pdf.WithWorkDir(cfg.Storage.WorkDir),
		guide2pdf.WithRecorder(m),
		guide2pdf.WithTimeout(cfg.Server.AssembleTimeout.Std()),
		guide2pdf.WithPDFDefaults(guide2pdf.PDFOptions{
			MarginTop:     cfg.PDF.MarginTop,
			MarginBottom:  cfg.PDF.MarginBottom,
			HeaderSpacing: cfg.PDF.HeaderSpacing,
			FooterSpacing: cfg.PDF.FooterSpacing,
		}),
	)
	if err != nil {
		_ = pool.Close()
		_ = st.Close()
		return nil, err
	}

	router := httpapi.NewRouter(asm, httpapi.Config{
		ServiceName:    "guide2pdf",
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		Logger:         log,
		Health:         st,
		Metrics:        m,
		MetricsHandler: m.Handler(),
	})

	log.Info("service wired",
		"driver", cfg.Storage.Driver,
		"pool_size", poolSize,
		"style", cfg.Render.Style,
	)

	return &app{router: router, store: st, pool: pool, metrics: m, log: log}, nil
}

func newUserResolver(cfg config.AuthConfig) (*auth.CookieResolver, error) {
	var opts []auth.Option
	if cfg.DevUser != "" {
		opts = append(opts, auth.WithDevUser(cfg.DevUser))
	}
	return auth.NewCookieResolver(cfg.CookieName, cfg.Secret, opts...)
}

// Close stops the browsers and the database connection.
func (a *app) Close() error {
	return errors.Join(a.pool.Close(), a.store.Close())
}

// serve runs the service until ctx is done.
func serve(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: "guide2pdf",
		Version:     Version,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
	}, log)
	if err != nil {
		return fmt.Errorf("%w: tracing: %v", errUsage, err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), tracingFlushTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	if ctx.Err() != nil {
		log.Info("shutdown requested before start")
		return nil
	}

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		if ctx.Err() != nil {
			log.Info("shutdown requested during start", "error", err)
			return nil
		}
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("shutdown cleanup failed", "error", err)
		}
	}()

	srv := httpapi.NewServer(cfg.Server.Addr, a.router, log)
	if err := srv.Run(ctx, cfg.Server.ShutdownTimeout.Std()); err != nil {
		return fmt.Errorf("%w: %v", errListen, err)
	}
	log.Info("server stopped")
	return nil
}
