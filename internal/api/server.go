package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/khanhnv2901/riskscan/internal/api/middleware"
	"github.com/khanhnv2901/riskscan/internal/domain/scan"
	consts "github.com/khanhnv2901/riskscan/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/riskscan/internal/shared/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxRequestBodyBytes caps POST bodies.
const maxRequestBodyBytes = 1 << 20

// ScanRequest is the body of POST /scan.
type ScanRequest struct {
	URL string `json:"url"`
}

// LogFilters echoes the effective query of GET /logs.
type LogFilters struct {
	Domain *string `json:"domain"`
	Limit  int     `json:"limit"`
}

// LogsResponse is the body of GET /logs.
type LogsResponse struct {
	Count   int            `json:"count"`
	Filters LogFilters     `json:"filters"`
	Results []*scan.Result `json:"results"`
}

type ScanService interface {
	RunScan(ctx context.Context, url string) (*scan.Result, error)
	Record(ctx context.Context, result *scan.Result) (*scan.Result, error)
}

type LogService interface {
	Logs(ctx context.Context, q scan.Query) ([]*scan.Result, error)
}

type HealthService interface {
	Check(ctx context.Context) error
}

type Config struct {
	Scans       ScanService
	Logs        LogService
	Health      HealthService
	AuthToken   string
	Logger      *zap.Logger
	CORSOrigins []string // Allowed CORS origins (empty = allow all)
	RateLimit   int      // Requests per second per IP (0 = disabled)
	RateBurst   int      // Burst size for rate limiter

	// TrustedProxies lists peer IPs or CIDRs whose X-Forwarded-For is honored.
	// Empty means the header is ignored.
	TrustedProxies []string
}

type Server struct {
	cfg      Config
	mux      *http.ServeMux
	limiters *rateLimiterMap
	proxies  []netip.Prefix
}

func NewServer(cfg Config) *Server {
	srv := &Server{
		cfg:      cfg,
		mux:      http.NewServeMux(),
		limiters: newRateLimiterMap(),
	}
	for _, entry := range cfg.TrustedProxies {
		prefix, err := parseProxy(entry)
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Warn("ignoring invalid trusted proxy", zap.String("entry", entry), zap.Error(err))
			}
			continue
		}
		srv.proxies = append(srv.proxies, prefix)
	}
	srv.routes()
	return srv
}

func parseProxy(entry string) (netip.Prefix, error) {
	entry = strings.TrimSpace(entry)
	if strings.Contains(entry, "/") {
		prefix, err := netip.ParsePrefix(entry)
		if err != nil {
			return netip.Prefix{}, err
		}
		return prefix.Masked(), nil
	}
	addr, err := netip.ParseAddr(entry)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// Close stops background maintenance of the rate limiter table.
func (s *Server) Close() {
	s.limiters.stop()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Apply middleware chain: RequestID -> Logging -> RateLimit -> CORS -> Auth -> Handler
	handler := middleware.RequestID(s.withLogging(s.withRateLimit(s.withCORS(s.mux))))
	handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleRoot)

	// Version 1 API routes (primary)
	s.mux.HandleFunc("/api/v1/health", s.handleHealth)
	s.mux.Handle("/api/v1/scan", s.withAuth(http.HandlerFunc(s.handleScan)))
	s.mux.Handle("/api/v1/logs", s.withAuth(http.HandlerFunc(s.handleLogs)))

	// Unversioned routes (original surface - alias to v1)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/scan", s.withAuth(http.HandlerFunc(s.handleScan)))
	s.mux.Handle("/logs", s.withAuth(http.HandlerFunc(s.handleLogs)))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.writeError(w, r, http.StatusNotFound, errors.New("not found"))
		return
	}
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "riskscan API is running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	if s.cfg.Health != nil {
		if err := s.cfg.Health.Check(r.Context()); err != nil {
			s.writeError(w, r, http.StatusInternalServerError, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "healthy",
	})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, r)
		return
	}
	if s.cfg.Scans == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("scan service not available"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	result, err := s.cfg.Scans.RunScan(r.Context(), req.URL)
	if err != nil {
		if errors.Is(err, sharedErrors.ErrInvalidTarget) {
			s.writeError(w, r, http.StatusBadRequest, err)
			return
		}
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	// A failed log write never changes the response.
	stored, err := s.cfg.Scans.Record(r.Context(), result)
	if err != nil {
		s.requestLogger(r).Warn("scan_log_write_failed",
			zap.String("url", result.URL),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, result)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	if s.cfg.Logs == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("log service not available"))
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	var domain *string
	if d := strings.TrimSpace(r.URL.Query().Get("domain")); d != "" {
		domain = &d
	}

	q := scan.Query{Limit: limit}
	if domain != nil {
		q.Domain = *domain
	}
	results, err := s.cfg.Logs.Logs(r.Context(), q)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	if results == nil {
		results = []*scan.Result{}
	}

	writeJSON(w, http.StatusOK, LogsResponse{
		Count:   len(results),
		Filters: LogFilters{Domain: domain, Limit: limit},
		Results: results,
	})
}

// parseLimit validates the limit query parameter (1..100, default 10).
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return consts.DefaultLogsLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > consts.MaxLogsLimit {
		return 0, fmt.Errorf("%w: limit must be an integer between 1 and %d", sharedErrors.ErrInvalidQuery, consts.MaxLogsLimit)
	}
	return limit, nil
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip rate limiting if disabled
		if s.cfg.RateLimit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		ip := s.clientIP(r)
		limiter := s.limiters.getLimiter(ip, s.cfg.RateLimit, s.cfg.RateBurst)

		if !limiter.Allow() {
			s.requestLogger(r).Warn("rate_limit_exceeded",
				zap.String("client_ip", ip),
			)
			s.writeError(w, r, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP returns the caller address used for rate limiting. X-Forwarded-For
// is only consulted when the direct peer is a trusted proxy; the hops are then
// walked right to left and the first untrusted one wins.
func (s *Server) clientIP(r *http.Request) string {
	peer := hostOnly(r.RemoteAddr)
	if !s.trusted(peer) {
		return peer
	}
	forwarded := r.Header.Values("X-Forwarded-For")
	if len(forwarded) == 0 {
		return peer
	}
	hops := strings.Split(strings.Join(forwarded, ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := hostOnly(strings.TrimSpace(hops[i]))
		if hop == "" {
			continue
		}
		if !s.trusted(hop) {
			return hop
		}
		peer = hop
	}
	return peer
}

func (s *Server) trusted(ip string) bool {
	if len(s.proxies) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range s.proxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// hostOnly strips an optional port, keeping bare IPv6 addresses intact.
func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.Trim(addr, "[]")
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowOrigin := "*"
		if len(s.cfg.CORSOrigins) > 0 {
			allowOrigin = ""
			for _, allowedOrigin := range s.cfg.CORSOrigins {
				if allowedOrigin == origin {
					allowOrigin = origin
					break
				}
			}
		}

		if allowOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Auth-Token, X-Request-ID")
			w.Header().Set("Access-Control-Max-Age", "3600")
		}

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		if s.cfg.Logger != nil {
			s.cfg.Logger.Info("http_request",
				zap.String("request_id", middleware.GetRequestID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Int("status", lrw.statusCode),
				zap.Duration("duration", time.Since(start)),
				zap.Int64("bytes", lrw.bytesWritten),
			)
		}
	})
}

func (s *Server) withAuth(next http.Handler) http.Handler {
	if s.cfg.AuthToken == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Auth-Token")
		// Use constant-time comparison to prevent timing attacks
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AuthToken)) != 1 {
			s.writeError(w, r, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggingResponseWriter wraps http.ResponseWriter to capture status code and bytes written
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	n, err := lrw.ResponseWriter.Write(b)
	lrw.bytesWritten += int64(n)
	return n, err
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	// Sanitize error messages to prevent information disclosure
	msg := err.Error()

	// For 5xx errors, return generic message and log details server-side
	if status >= 500 {
		s.requestLogger(r).Error("internal_server_error",
			zap.Error(err),
			zap.Int("status", status),
		)
		msg = "internal server error"
	}

	writeJSON(w, status, map[string]string{"error": msg})
}

// requestLogger creates a logger with request context (request ID, method, path)
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	if s.cfg.Logger == nil {
		return zap.NewNop()
	}

	return s.cfg.Logger.With(
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

// rateLimiterMap manages per-IP rate limiters with automatic cleanup
type rateLimiterMap struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	done     chan struct{}
	stopOnce sync.Once
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiterMap() *rateLimiterMap {
	m := &rateLimiterMap{
		limiters: make(map[string]*ipLimiter),
		done:     make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

func (m *rateLimiterMap) getLimiter(ip string, rps, burst int) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if burst <= 0 {
		burst = rps
	}

	limiter, exists := m.limiters[ip]
	if !exists {
		limiter = &ipLimiter{
			limiter:  rate.NewLimiter(rate.Limit(rps), burst),
			lastSeen: time.Now(),
		}
		m.limiters[ip] = limiter
	} else {
		limiter.lastSeen = time.Now()
	}

	return limiter.limiter
}

func (m *rateLimiterMap) stop() {
	m.stopOnce.Do(func() { close(m.done) })
}

// cleanupLoop removes limiters that haven't been used in 5 minutes
func (m *rateLimiterMap) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.mu.Lock()
			for ip, limiter := range m.limiters {
				if time.Since(limiter.lastSeen) > 5*time.Minute {
					delete(m.limiters, ip)
				}
			}
			m.mu.Unlock()
		}
	}
}
