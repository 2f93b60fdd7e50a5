package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/dispatch"
	"mercator-hq/relay/pkg/health"
	"mercator-hq/relay/pkg/oauth"
	"mercator-hq/relay/pkg/security/auth"
	"mercator-hq/relay/pkg/server/handlers"
	"mercator-hq/relay/pkg/server/middleware"
	telehealth "mercator-hq/relay/pkg/telemetry/health"
	"mercator-hq/relay/pkg/telemetry/logging"
	"mercator-hq/relay/pkg/telemetry/metrics"
)

// Server is the relay's HTTP entry point, wiring the dispatcher, provider
// registry, OAuth store, and telemetry collectors onto one listen socket.
type Server struct {
	cfg *config.Config

	Dispatcher  *dispatch.Dispatcher
	Registry    handlers.RegistryReader
	HealthTrack *health.Tracker
	OAuthStore  *oauth.Store
	OAuthFlow   *oauth.Flow
	Metrics     *metrics.Collector
	Checker     *telehealth.Checker
	Logger      *logging.Logger
	ClientAuth  *auth.ClientKeyMiddleware

	Version   string
	Commit    string
	BuildTime string

	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// New builds a Server from its already-constructed dependencies. cfg
// supplies the listen address and the TLS/mTLS settings; client auth comes
// from the ClientAuth field and CORS always uses DefaultCORSConfig.
func New(cfg *config.Config) *Server {
	return &Server{cfg: cfg, shutdownChan: make(chan struct{})}
}

// Start builds the route handler, binds the listen socket (plain or TLS
// per cfg.TLS), and blocks until ctx is cancelled, a shutdown signal
// arrives, or the listener errors.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server: already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	handler := s.buildHandler()
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	tlsConfig, err := s.cfg.TLS.ToTLSConfig()
	if err != nil {
		return fmt.Errorf("server: configuring tls: %w", err)
	}
	s.httpServer.TLSConfig = tlsConfig

	if s.cfg.TLS.Enabled {
		if _, err := s.cfg.TLS.StartReloader(ctx, tlsConfig); err != nil {
			return fmt.Errorf("server: starting certificate reloader: %w", err)
		}
	}

	errChan := make(chan error, 1)
	go func() {
		s.Logger.Info("starting relay", "address", addr, "tls_enabled", s.cfg.TLS.Enabled)

		var serveErr error
		if s.cfg.TLS.Enabled {
			serveErr = s.httpServer.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			serveErr = s.httpServer.ListenAndServe()
		}
		if serveErr != nil && serveErr != http.ErrServerClosed {
			errChan <- fmt.Errorf("server: %w", serveErr)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		s.Logger.Info("context cancelled, shutting down")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.Logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		return s.Shutdown(context.Background())
	}
}

// Shutdown drains in-flight connections (bounded to 30s) and stops the
// listener. Idempotent.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		running := s.isRunning
		s.mu.Unlock()
		if !running {
			return
		}

		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				shutdownErr = fmt.Errorf("server: shutdown: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	})

	return shutdownErr
}

// IsRunning reports whether the listener is currently accepting requests.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler builds and returns the fully wrapped HTTP handler, useful for
// httptest-driven integration tests that don't want a real listen socket.
func (s *Server) Handler() http.Handler {
	return s.buildHandler()
}

// auxiliaryTimeout bounds every non-streaming route. /v1/messages is
// exempt: its own per-candidate timeout already bounds each upstream
// attempt, and wrapping the whole streaming response would cut it off
// mid-stream regardless of progress.
const auxiliaryTimeout = 30 * time.Second

func (s *Server) buildHandler() http.Handler {
	mux := http.NewServeMux()
	aux := middleware.Timeout(auxiliaryTimeout)

	messages := &handlers.MessagesHandler{Dispatcher: s.Dispatcher, Logger: s.Logger}
	providers := &handlers.ProvidersHandler{Registry: s.Registry, Health: s.HealthTrack}
	oauthHandler := &handlers.OAuthHandler{Flow: s.OAuthFlow, Store: s.OAuthStore}

	mux.Handle("/v1/messages", messages)
	mux.Handle("/providers", aux(providers))
	mux.Handle("/oauth/generate-url", aux(http.HandlerFunc(oauthHandler.GenerateURL)))
	mux.Handle("/oauth/exchange-code", aux(http.HandlerFunc(oauthHandler.ExchangeCode)))
	mux.Handle("/oauth/refresh/{account}", aux(http.HandlerFunc(oauthHandler.Refresh)))
	mux.Handle("/oauth/status", aux(http.HandlerFunc(oauthHandler.Status)))
	mux.Handle("/oauth/tokens", aux(http.HandlerFunc(oauthHandler.DeleteToken)))
	mux.Handle("/oauth/tokens/{account}", aux(http.HandlerFunc(oauthHandler.DeleteToken)))

	handlers.MountDiagnostics(mux, s.Checker, s.Metrics, s.Version, s.Commit, s.BuildTime)

	var h http.Handler = mux
	if s.ClientAuth != nil {
		h = s.ClientAuth.Handle(h)
	}
	h = middleware.CORS(middleware.DefaultCORSConfig())(h)
	h = middleware.RequestID(h)
	if s.cfg.TLS.MTLS.Enabled {
		h = middleware.ClientIdentity(s.cfg.TLS.MTLS.IdentitySource)(h)
	}
	h = middleware.Logging(s.Logger)(h)
	h = middleware.Recovery(s.Logger)(h)
	return h
}
