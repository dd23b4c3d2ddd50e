// Package http is the JSON presentation layer. It trusts the identity
// the authentication proxy puts in the X-User-ID header, translates
// request payloads into service calls and maps the error classes onto
// HTTP status codes. No HTML or chart rendering lives here.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"bilancio/internal/services"
)

type Server struct {
	http.Server
	ledger      *services.LedgerService
	reports     *services.ReportService
	rateLimiter *rateLimiter
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, ledger *services.LedgerService, reports *services.ReportService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:      ledger,
		reports:     reports,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("POST /accounts", s.protect(s.handleCreateAccount))
	mux.HandleFunc("GET /accounts", s.protect(s.handleListAccounts))
	mux.HandleFunc("GET /accounts/{id}", s.protect(s.handleGetAccount))
	mux.HandleFunc("PUT /accounts/{id}", s.protect(s.handleUpdateAccount))
	mux.HandleFunc("DELETE /accounts/{id}", s.protect(s.handleDeleteAccount))

	mux.HandleFunc("POST /categories", s.protect(s.handleCreateCategory))
	mux.HandleFunc("GET /categories", s.protect(s.handleListCategories))
	mux.HandleFunc("PUT /categories/{id}", s.protect(s.handleRenameCategory))
	mux.HandleFunc("DELETE /categories/{id}", s.protect(s.handleDeleteCategory))

	mux.HandleFunc("POST /tags", s.protect(s.handleCreateTag))
	mux.HandleFunc("GET /tags", s.protect(s.handleListTags))
	mux.HandleFunc("PUT /tags/{id}", s.protect(s.handleRenameTag))
	mux.HandleFunc("DELETE /tags/{id}", s.protect(s.handleDeleteTag))

	mux.HandleFunc("POST /incomes", s.protect(s.handlePostIncome))
	mux.HandleFunc("POST /expenses", s.protect(s.handlePostExpense))
	mux.HandleFunc("GET /transactions", s.protect(s.handleListTransactions))
	mux.HandleFunc("PUT /transactions/{id}", s.protect(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /transactions/{id}", s.protect(s.handleDeleteTransaction))

	mux.HandleFunc("POST /transfers", s.protect(s.handlePostTransfer))
	mux.HandleFunc("GET /transfers", s.protect(s.handleListTransfers))
	mux.HandleFunc("PUT /transfers/{id}", s.protect(s.handleUpdateTransfer))
	mux.HandleFunc("DELETE /transfers/{id}", s.protect(s.handleDeleteTransfer))

	mux.HandleFunc("POST /budgets", s.protect(s.handleCreateBudget))
	mux.HandleFunc("POST /budgets/copy", s.protect(s.handleCopyBudgets))
	mux.HandleFunc("GET /budgets", s.protect(s.handleListBudgets))
	mux.HandleFunc("PUT /budgets/{id}", s.protect(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /budgets/{id}", s.protect(s.handleDeleteBudget))

	mux.HandleFunc("GET /reports/monthly", s.protect(s.handleMonthlyReport))
	mux.HandleFunc("GET /reports/annual", s.protect(s.handleAnnualReport))
	mux.HandleFunc("GET /reports/budget", s.protect(s.handleBudgetStatus))

	return s
}

// protect adds security headers, rate limiting and request logging.
func (s *Server) protect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		// Rate-limit mutations only; report reads stay cheap.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Simple per-IP rate limiter: up to 60 mutating requests a minute.
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{lastRequest: now, requests: 1}
		return true
	}

	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	client.requests++
	client.lastRequest = now
	return client.requests <= 60
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

// Shutdown stops the rate limiter's cleanup goroutine and then shuts
// down the underlying HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.stop()
	return s.Server.Shutdown(ctx)
}
