// Package proxy serves the public search frontend: it reverse-proxies each
// profile's hound instance under /<backend>/, rebrands the index pages, and
// reports instance health on /_health.json.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"git.home.luguber.info/inful/codesearch/internal/config"
	cserrors "git.home.luguber.info/inful/codesearch/internal/errors"
	"git.home.luguber.info/inful/codesearch/internal/logfields"
	"git.home.luguber.info/inful/codesearch/internal/metrics"
	"git.home.luguber.info/inful/codesearch/internal/ports"
	"git.home.luguber.info/inful/codesearch/internal/publish"
	"git.home.luguber.info/inful/codesearch/internal/systemd"
)

// Health states reported on /_health.json.
const (
	StateUp         = "up"
	StateStartingUp = "starting up"
	StateDown       = "down"
)

const (
	healthCacheSize = 32
	healthCacheTTL  = 5 * time.Second
)

type backendTarget struct {
	name string
	port int
}

func defaultTargets() []backendTarget {
	names := ports.Backends()
	targets := make([]backendTarget, 0, len(names))
	for _, name := range names {
		port, _ := ports.For(name)
		targets = append(targets, backendTarget{name: name, port: port})
	}
	return targets
}

type probeResult struct {
	state   string
	checked time.Time
}

// Server is the search proxy frontend.
type Server struct {
	listen      string
	backendHost string
	targets     []backendTarget
	names       []string
	manager     *systemd.Manager
	recorder    metrics.Recorder
	probeClient *http.Client
	cache       *lru.Cache[string, probeResult]
	httpServer  *http.Server
}

// NewServer creates a proxy over the standard backend port table.
func NewServer(cfg config.ProxyConfig, manager *systemd.Manager, recorder metrics.Recorder) (*Server, error) {
	return newServer(cfg, defaultTargets(), manager, recorder)
}

func newServer(cfg config.ProxyConfig, targets []backendTarget, manager *systemd.Manager, recorder metrics.Recorder) (*Server, error) {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	cache, err := lru.New[string, probeResult](healthCacheSize)
	if err != nil {
		return nil, cserrors.WrapError(err, cserrors.CategoryProxy, "creating health cache")
	}

	names := make([]string, 0, len(targets))
	for _, target := range targets {
		names = append(names, target.name)
	}

	return &Server{
		listen:      cfg.Listen,
		backendHost: cfg.BackendHost,
		targets:     targets,
		names:       names,
		manager:     manager,
		recorder:    recorder,
		probeClient: &http.Client{Timeout: 5 * time.Second},
		cache:       cache,
	}, nil
}

// Handler builds the full route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/_health.json", s.handleHealth)
	for _, target := range s.targets {
		mux.Handle("/"+target.name+"/", s.backendHandler(target))
	}
	return hstsMiddleware(mux)
}

// Start begins serving in the background.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.listen,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Search proxy server error", logfields.Error(err))
		}
	}()
	slog.Info("Search proxy listening",
		slog.String("addr", s.listen),
		slog.Int("backends", len(s.targets)))
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		http.Redirect(w, r, "/search/", http.StatusFound)
		return
	}
	s.recorder.IncProxyRequest("invalid", metrics.CodeLabel(http.StatusNotFound))
	http.Error(w, "invalid backend", http.StatusNotFound)
}

// backendHandler reverse-proxies one hound instance, rewriting its index
// page on the way through.
func (s *Server) backendHandler(target backendTarget) http.Handler {
	backendURL := &url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(s.backendHost, strconv.Itoa(target.port)),
	}
	proxy := httputil.NewSingleHostReverseProxy(backendURL)

	director := proxy.Director
	proxy.Director = func(req *http.Request) {
		director(req)
		// Upstream must not compress, the index page gets rewritten.
		req.Header.Del("Accept-Encoding")
	}
	proxy.ModifyResponse = func(resp *http.Response) error {
		if resp.Request == nil || resp.Request.URL.Path != "/" {
			return nil
		}
		return s.rewriteResponse(resp, target.name)
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		slog.Error("Backend request failed",
			logfields.Backend(target.name),
			logfields.Error(err))
		http.Error(w, "hound backend unavailable", http.StatusBadGateway)
	}

	inner := http.StripPrefix("/"+target.name, proxy)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		inner.ServeHTTP(wrapped, r)
		s.recorder.IncProxyRequest(target.name, metrics.CodeLabel(wrapped.statusCode))
		slog.Debug("Proxied request",
			logfields.Backend(target.name),
			logfields.Path(r.URL.Path),
			slog.Int("status", wrapped.statusCode))
	})
}

func (s *Server) rewriteResponse(resp *http.Response, backend string) error {
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return cserrors.WrapError(err, cserrors.CategoryProxy, "reading backend page").
			WithContext(logfields.KeyBackend, backend)
	}

	rewritten, err := RewriteIndex(body, s.names, backend)
	if err != nil {
		return err
	}

	resp.Body = io.NopCloser(bytes.NewReader(rewritten))
	resp.ContentLength = int64(len(rewritten))
	resp.Header.Set("Content-Length", strconv.Itoa(len(rewritten)))
	resp.Header.Del("Content-Encoding")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	states := s.healthStates(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(states); err != nil {
		slog.Error("Failed to write health response", logfields.Error(err))
	}
}

func (s *Server) healthStates(ctx context.Context) map[string]string {
	states := make(map[string]string, len(s.targets))
	for _, target := range s.targets {
		states[target.name] = s.backendState(ctx, target)
	}
	return states
}

func (s *Server) backendState(ctx context.Context, target backendTarget) string {
	if cached, ok := s.cache.Get(target.name); ok && time.Since(cached.checked) < healthCacheTTL {
		return cached.state
	}
	state := s.probe(ctx, target)
	s.cache.Add(target.name, probeResult{state: state, checked: time.Now()})
	return state
}

// probe decides one backend's state: "down" when its unit has no main
// process or the instance does not answer, "starting up" while hound still
// serves its startup placeholder, "up" otherwise.
func (s *Server) probe(ctx context.Context, target backendTarget) string {
	pid, err := s.manager.MainPID(ctx, publish.UnitName(target.name))
	if err != nil || pid == 0 {
		return StateDown
	}

	probeURL := fmt.Sprintf("http://%s/", net.JoinHostPort(s.backendHost, strconv.Itoa(target.port)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return StateDown
	}
	resp, err := s.probeClient.Do(req)
	if err != nil {
		return StateDown
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return StateDown
	}
	if bytes.Contains(body, []byte(StartupMarker)) {
		return StateStartingUp
	}
	return StateUp
}

// hstsMiddleware adds Strict-Transport-Security to every response.
func hstsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000")
		next.ServeHTTP(w, r)
	})
}

// responseWriter captures status codes for metrics.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
