// Package server serves the DevKit pages and their JSON APIs.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/devkitlanka/devkit/internal/cheatsheet"
	"github.com/devkitlanka/devkit/internal/config"
	"github.com/devkitlanka/devkit/internal/errors"
	"github.com/devkitlanka/devkit/internal/formatter"
	"github.com/devkitlanka/devkit/internal/github"
	"github.com/devkitlanka/devkit/internal/highlight"
	"github.com/devkitlanka/devkit/internal/logging"
	"github.com/devkitlanka/devkit/internal/monitoring"
	"github.com/devkitlanka/devkit/internal/regex"
	"github.com/devkitlanka/devkit/internal/scaffolding"
)

// Server holds the tool engines and the HTTP server that exposes them.
type Server struct {
	config      *config.Config
	logger      logging.Logger
	errors      *errors.ErrorHandler
	evaluator   *regex.Evaluator
	converter   *formatter.Converter
	registry    *scaffolding.Registry
	sheets      *cheatsheet.Repository
	stars       *github.Client
	highlighter *highlight.Highlighter
	fetchers    *fetcherPool
	limiter     *RateLimiter
	security    *SecurityConfig
	health      *monitoring.HealthMonitor

	httpServer   *http.Server
	serverMutex  sync.RWMutex
	shutdownOnce sync.Once
	// done is closed on shutdown; open websockets watch it.
	done chan struct{}
}

// Option customises a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithSheets replaces the cheat-sheet repository.
func WithSheets(r *cheatsheet.Repository) Option {
	return func(s *Server) { s.sheets = r }
}

// WithStars replaces the star-count client.
func WithStars(c *github.Client) Option {
	return func(s *Server) { s.stars = c }
}

// WithHTTPClient sets the client used for document fetches.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Server) { s.fetchers.client = c }
}

// New builds a server from cfg.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	s := &Server{
		config:   cfg,
		logger:   logging.NewNopLogger(),
		security: SecurityConfigFromAppConfig(cfg),
		done:     make(chan struct{}),
		fetchers: &fetcherPool{
			fetchers: make(map[string]*pooledFetcher),
			opts: formatter.FetchOptions{
				Timeout:  cfg.Formatter.FetchTimeout,
				MaxBytes: cfg.Formatter.MaxFetchBytes,
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("server")
	s.errors = errors.NewErrorHandler(s.logger)
	s.fetchers.opts.Logger = s.logger

	s.evaluator = regex.NewEvaluator(regex.Options{
		MaxMatches:      cfg.Regex.MaxMatches,
		MaxSubjectBytes: cfg.Regex.MaxSubjectLen,
		Logger:          s.logger,
	})
	s.converter = formatter.NewConverter(formatter.Options{
		DefaultIndent: cfg.Formatter.DefaultIndent,
		MaxInputBytes: cfg.Formatter.MaxInputBytes,
		Logger:        s.logger,
	})
	s.registry = scaffolding.Builtin()
	s.highlighter = highlight.New(cfg.Highlight.Style)

	if s.sheets == nil {
		repo, err := cheatsheet.NewRepository(cheatsheet.Options{Dir: cfg.Cheatsheets.Dir, Logger: s.logger})
		if err != nil {
			return nil, err
		}
		s.sheets = repo
	}
	if s.stars == nil {
		s.stars = github.NewClient(github.Options{
			APIURL:   cfg.GitHub.APIURL,
			Token:    cfg.GitHub.Token,
			CacheTTL: cfg.GitHub.CacheTTL,
			Timeout:  cfg.GitHub.Timeout,
			Logger:   s.logger,
		})
	}

	s.limiter = NewRateLimiter(&RateLimitConfig{
		RequestsPerMinute: cfg.Server.RateLimit,
		BurstSize:         cfg.Server.RateLimit,
		Enabled:           cfg.Server.RateLimit > 0,
	}, s.logger)

	s.health = s.newHealthMonitor()

	return s, nil
}

func (s *Server) newHealthMonitor() *monitoring.HealthMonitor {
	monitoring.SetEnvironment(s.config.Server.Environment)
	hm := monitoring.NewHealthMonitor(monitoring.Options{Timeout: 2 * time.Second, Logger: s.logger})

	hm.RegisterCheck(monitoring.NewHealthCheckFunc("cheatsheets", true, func(ctx context.Context) monitoring.HealthCheck {
		n := len(s.sheets.IDs())
		check := monitoring.HealthCheck{
			Status:  monitoring.HealthStatusHealthy,
			Message: fmt.Sprintf("%d sheets loaded", n),
			Metadata: map[string]interface{}{
				"sheets":   n,
				"reloads":  s.sheets.Reloads(),
				"loadedAt": s.sheets.LoadedAt().UTC(),
			},
		}
		if n == 0 {
			check.Status = monitoring.HealthStatusUnhealthy
			check.Message = "no cheat sheets loaded"
		}

		return check
	}))
	hm.RegisterCheck(monitoring.NewHealthCheckFunc("templates", true, func(ctx context.Context) monitoring.HealthCheck {
		n := len(s.registry.IDs())
		if n == 0 {
			return monitoring.HealthCheck{Status: monitoring.HealthStatusUnhealthy, Message: "no templates registered"}
		}

		return monitoring.HealthCheck{
			Status:   monitoring.HealthStatusHealthy,
			Message:  fmt.Sprintf("%d templates registered", n),
			Metadata: map[string]interface{}{"count": n},
		}
	}))
	if dir := s.config.Cheatsheets.Dir; dir != "" {
		hm.RegisterCheck(monitoring.DirectoryHealthChecker("sheet_dir", dir, false))
	}
	hm.RegisterCheck(monitoring.MemoryHealthChecker())
	hm.RegisterCheck(monitoring.GoroutineHealthChecker())

	return hm
}

// Handler returns the routed and wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.Handle("GET /health", s.health.HTTPHandler())

	mux.HandleFunc("GET /regex", s.handleRegexPage)
	mux.HandleFunc("POST /regex", s.handleRegexPage)
	mux.HandleFunc("POST /api/regex", s.handleRegexAPI)
	mux.HandleFunc("GET /ws/regex", s.handleRegexSocket)

	mux.HandleFunc("GET /formatter", s.handleFormatterPage)
	mux.HandleFunc("POST /formatter", s.handleFormatterPage)
	mux.HandleFunc("GET /formatter/manual", s.handleManual)
	mux.HandleFunc("POST /api/format", s.handleFormatAPI)
	mux.Handle("POST /api/format/fetch", s.rateLimited(http.HandlerFunc(s.handleFetchAPI)))

	mux.HandleFunc("GET /boilerplate", s.handleBoilerplatePage)
	mux.HandleFunc("POST /boilerplate", s.handleBoilerplatePage)
	mux.HandleFunc("GET /api/templates", s.handleTemplatesAPI)
	mux.HandleFunc("POST /api/generate", s.handleGenerateAPI)
	mux.HandleFunc("GET /api/generate/zip", s.handleZip)

	mux.HandleFunc("GET /cheatsheets", s.handleCheatsheetPage)
	mux.HandleFunc("GET /api/cheatsheets", s.handleCheatsheetsAPI)
	mux.HandleFunc("GET /api/cheatsheets/{sheet}", s.handleCheatsheetAPI)

	mux.Handle("GET /api/github/stars", s.rateLimited(http.HandlerFunc(s.handleStars)))

	mux.HandleFunc("/", s.handleNotFound)

	return s.addMiddleware(mux)
}

// Start serves until ctx is done or the listener fails. With
// cheatsheets.watch set, the sheet directory is reloaded on change.
func (s *Server) Start(ctx context.Context) error {
	if s.config.Cheatsheets.Watch && s.config.Cheatsheets.Dir != "" {
		if err := s.sheets.Watch(ctx); err != nil {
			s.logger.Warn(ctx, err, "Cheat-sheet watcher not started", "dir", s.config.Cheatsheets.Dir)
		}
	}

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "DevKit server listening", "addr", addr, "environment", s.config.Server.Environment)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.NewEnhancedError("Server failed to start", err,
			errors.ServerStartError(err, s.config.Server.Port, nil))
	}

	return nil
}

// Shutdown stops the HTTP server, outstanding fetches and the limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "Shutting down server")
		close(s.done)
		s.fetchers.cancelAll()
		s.limiter.Stop()

		s.serverMutex.RLock()
		server := s.httpServer
		s.serverMutex.RUnlock()
		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})

	return shutdownErr
}

// fetcherPool keeps one formatter fetcher per client, so a new fetch from a
// client supersedes only that client's request in flight. An entry lives
// only while some request of that client is using it.
type fetcherPool struct {
	mu       sync.Mutex
	client   *http.Client
	opts     formatter.FetchOptions
	fetchers map[string]*pooledFetcher
}

type pooledFetcher struct {
	fetcher *formatter.Fetcher
	users   int
}

func (p *fetcherPool) acquire(key string) *formatter.Fetcher {
	p.mu.Lock()
	defer p.mu.Unlock()

	pf, ok := p.fetchers[key]
	if !ok {
		opts := p.opts
		opts.Client = p.client
		pf = &pooledFetcher{fetcher: formatter.NewFetcher(opts)}
		p.fetchers[key] = pf
	}
	pf.users++

	return pf.fetcher
}

func (p *fetcherPool) release(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pf, ok := p.fetchers[key]
	if !ok {
		return
	}
	pf.users--
	if pf.users <= 0 {
		delete(p.fetchers, key)
	}
}

// fetch runs one fetch on key's fetcher, superseding key's fetch in flight.
func (p *fetcherPool) fetch(ctx context.Context, key, rawURL string) (*formatter.FetchResult, error) {
	f := p.acquire(key)
	defer p.release(key)

	return f.Fetch(ctx, rawURL)
}

// busy reports whether key has a fetch outstanding.
func (p *fetcherPool) busy(key string) bool {
	p.mu.Lock()
	pf, ok := p.fetchers[key]
	p.mu.Unlock()

	return ok && pf.fetcher.Busy()
}

// size is the number of clients holding a fetcher.
func (p *fetcherPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.fetchers)
}

func (p *fetcherPool) cancelAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pf := range p.fetchers {
		pf.fetcher.Cancel()
	}
}
