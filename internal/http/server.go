// Package http exposes the welfare ledger as a JSON API.
package http

import (
	"container/list"
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"zawadi/internal/core"
	"zawadi/internal/workflow"
)

// WelfareAPI is the application surface the handlers call.
// *services.WelfareService satisfies it.
type WelfareAPI interface {
	PostMonthlyContribution(ctx context.Context, houseNo string, month int, amount core.Money) (core.Household, error)
	UpdateHouseholdContact(ctx context.Context, houseNo, rateCategory, email string) (core.Household, error)
	UpsertRate(ctx context.Context, r core.RateCategory) error
	CarryForwardDebt(ctx context.Context, year int) (int, error)
	SetCashOpening(ctx context.Context, carriedForward, withdrawal core.Money) (core.CashPosition, error)
	UpdateExpenseCorrections(ctx context.Context, id int64, remarks, receiptRef string) error

	SubmitRequest(ctx context.Context, r core.Request) (core.Request, error)
	ApproveRequest(ctx context.Context, kind core.RequestKind, id int64, reviewer, note string) (workflow.ApprovalResult, error)
	RejectRequest(ctx context.Context, kind core.RequestKind, id int64, reviewer, note string) (core.Request, error)
	ListRequests(ctx context.Context, kind core.RequestKind, status core.RequestStatus) ([]core.Request, error)

	GetHousehold(ctx context.Context, houseNo string) (core.Household, error)
	ListHouseholds(ctx context.Context) ([]core.Household, error)
	ListExpenses(ctx context.Context) ([]core.ExpenseEntry, error)
	ListSpecial(ctx context.Context) ([]core.SpecialContribution, error)
	ListRates(ctx context.Context) ([]core.RateCategory, error)
	GetCashPosition(ctx context.Context) (core.CashPosition, error)
}

// LRU cache with TTL and size-based eviction for the hot read paths.
type lruCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
}

type cacheItem[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

func newLRUCache[T any](maxSize int, ttl time.Duration) *lruCache[T] {
	return &lruCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

func (c *lruCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, exists := c.items[key]
	if !exists {
		return zero, false
	}

	item := elem.Value.(*cacheItem[T])
	if time.Now().After(item.expiresAt) {
		c.removeElement(elem)
		return zero, false
	}

	c.lru.MoveToFront(elem)
	return item.data, true
}

func (c *lruCache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := &cacheItem[T]{
		key:       key,
		data:      data,
		expiresAt: time.Now().Add(c.ttl),
	}

	if elem, exists := c.items[key]; exists {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return
	}

	elem := c.lru.PushFront(item)
	c.items[key] = elem

	if c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

func (c *lruCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, exists := c.items[key]; exists {
		c.removeElement(elem)
	}
}

func (c *lruCache[T]) removeElement(elem *list.Element) {
	item := elem.Value.(*cacheItem[T])
	delete(c.items, item.key)
	c.lru.Remove(elem)
}

const (
	cacheKeyHouseholds = "households"
	cacheKeyCash       = "cash"
)

type Server struct {
	http.Server
	svc         WelfareAPI
	rateLimiter *rateLimiter

	householdsCache *lruCache[[]core.Household]
	cashCache       *lruCache[core.CashPosition]

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, svc WelfareAPI) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		svc:             svc,
		rateLimiter:     newRateLimiter(),
		householdsCache: newLRUCache[[]core.Household](4, 30*time.Second),
		cashCache:       newLRUCache[core.CashPosition](4, 30*time.Second),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.withSecurityHeaders(s.handleReady))
	mux.HandleFunc("/households", s.withSecurityHeaders(s.handleHouseholds))
	mux.HandleFunc("/households/contact", s.withSecurityHeaders(s.handleHouseholdContact))
	mux.HandleFunc("/contributions", s.withSecurityHeaders(s.handlePostContribution))
	mux.HandleFunc("/carryforward", s.withSecurityHeaders(s.handleCarryForward))
	mux.HandleFunc("/expenses", s.withSecurityHeaders(s.handleExpenses))
	mux.HandleFunc("/expenses/corrections", s.withSecurityHeaders(s.handleExpenseCorrections))
	mux.HandleFunc("/special", s.withSecurityHeaders(s.handleSpecial))
	mux.HandleFunc("/rates", s.withSecurityHeaders(s.handleRates))
	mux.HandleFunc("/cash", s.withSecurityHeaders(s.handleCash))
	mux.HandleFunc("/requests", s.withSecurityHeaders(s.handleRequests))
	mux.HandleFunc("/requests/approve", s.withSecurityHeaders(s.handleApprove))
	mux.HandleFunc("/requests/reject", s.withSecurityHeaders(s.handleReject))

	return s
}

// invalidateCaches drops cached reads after any mutation.
func (s *Server) invalidateCaches() {
	s.householdsCache.Delete(cacheKeyHouseholds)
	s.cashCache.Delete(cacheKeyCash)
}

// withSecurityHeaders adds security headers, rate limiting and request
// logging.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
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

// Shutdown stops the rate limiter cleanup goroutine and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
