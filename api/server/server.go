package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"chainview/core/audit"
	"chainview/core/auth"
	"chainview/core/mempool"
)

// Options configure the dev node.
type Options struct {
	ListenAddr string
	JWTSecret  string // when set, every request needs a valid bearer token
	APIKey     string // when set, every request needs X-API-Key
	MaxPool    int
	RateLimit  int          // requests per client per minute; 0 disables limiting
	Audit      audit.Logger // defaults to audit.StdLogger
}

// Server is a local stand-in for the blockchain backend's REST API.
type Server struct {
	opts    Options
	pool    *mempool.Mempool
	ledger  *Ledger
	audit   audit.Logger
	limit   *rateLimiter
	started time.Time
}

// NewServer returns a dev node with an empty pool and a genesis-only chain.
func NewServer(opts Options) *Server {
	if opts.MaxPool <= 0 {
		opts.MaxPool = 1000
	}
	if opts.Audit == nil {
		opts.Audit = audit.StdLogger{}
	}
	pool := mempool.NewMempool(opts.MaxPool)
	s := &Server{opts: opts, pool: pool, ledger: NewLedger(pool), audit: opts.Audit, started: time.Now()}
	if opts.RateLimit > 0 {
		s.limit = newRateLimiter(opts.RateLimit)
	}
	return s
}

// Ledger exposes the chain, mostly for seeding and tests.
func (s *Server) Ledger() *Ledger { return s.ledger }

// Handler returns the routed, authenticated API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/blockchain", s.handleBlockchain)
	mux.HandleFunc("/blockchain/range", s.handleBlockchainRange)
	mux.HandleFunc("/blockchain/length", s.handleBlockchainLength)
	mux.HandleFunc("/blockchain/mine", s.handleMine)
	mux.HandleFunc("/wallet/transact", s.handleTransact)
	mux.HandleFunc("/wallet/info", s.handleWalletInfo)
	mux.HandleFunc("/known-addresses", s.handleKnownAddresses)
	mux.HandleFunc("/transactions", s.handleTransactions)
	mux.HandleFunc("/health/liveness", s.handleLiveness)
	mux.HandleFunc("/health/readiness", s.handleReadiness)
	mux.HandleFunc("/version", s.handleVersion)
	mux.HandleFunc("/metrics", s.handleMetrics)
	return s.limitRate(s.authenticate(mux))
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.opts.ListenAddr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() {
		log.Printf("[DEVNODE] Listening at %s (wallet %s)", s.opts.ListenAddr, s.ledger.Address())
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return errors.Wrap(err, "dev node stopped")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Printf("[DEVNODE] Shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) limitRate(next http.Handler) http.Handler {
	if s.limit == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientHost(r)
		if !s.limit.allow(client) {
			s.record("RateLimit", client, "failure", "too many requests", r)
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authenticate enforces the API key and bearer token on everything but health probes.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/health/") {
			next.ServeHTTP(w, r)
			return
		}
		client := clientHost(r)
		if s.opts.APIKey != "" && r.Header.Get("X-API-Key") != s.opts.APIKey {
			s.record("Auth", client, "failure", "bad API key", r)
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}
		if s.opts.JWTSecret != "" {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				s.record("Auth", client, "failure", "missing bearer token", r)
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			if _, err := auth.Verify(s.opts.JWTSecret, strings.TrimPrefix(header, "Bearer ")); err != nil {
				s.record("Auth", client, "failure", err.Error(), r)
				writeError(w, http.StatusUnauthorized, "invalid bearer token")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) record(kind, entity, result, reason string, r *http.Request) {
	s.audit.LogEvent(audit.Event{
		Timestamp: time.Now(),
		Type:      kind,
		Entity:    entity,
		Result:    result,
		Reason:    reason,
		Metadata:  map[string]string{"method": r.Method, "path": r.URL.Path, "request": r.Header.Get("X-Request-ID")},
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Write([]byte("Welcome to the Blockchain"))
}

func (s *Server) handleBlockchain(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Blocks())
}

// handleBlockchainRange serves blocks [start, end) of the chain reversed, tip first.
func (s *Server) handleBlockchainRange(w http.ResponseWriter, r *http.Request) {
	start, err1 := strconv.Atoi(r.URL.Query().Get("start"))
	end, err2 := strconv.Atoi(r.URL.Query().Get("end"))
	if err1 != nil || err2 != nil || start < 0 || end < start {
		writeError(w, http.StatusBadRequest, "start and end must be integers with 0 <= start <= end")
		return
	}
	blocks := s.ledger.Blocks()
	for i, j := 0, len(blocks)-1; i < j; i, j = i+1, j-1 {
		blocks[i], blocks[j] = blocks[j], blocks[i]
	}
	if start > len(blocks) {
		start = len(blocks)
	}
	if end > len(blocks) {
		end = len(blocks)
	}
	writeJSON(w, http.StatusOK, blocks[start:end])
}

func (s *Server) handleBlockchainLength(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, len(s.ledger.Blocks()))
}

func (s *Server) handleMine(w http.ResponseWriter, r *http.Request) {
	blk := s.ledger.Mine()
	log.Printf("[DEVNODE] Mined block %s with %d transaction(s)", blk.Hash, len(blk.Data))
	s.record("Mine", s.ledger.Address(), "success", "", r)
	writeJSON(w, http.StatusOK, blk)
}

func (s *Server) handleTransact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		Recipient string  `json:"recipient"`
		Amount    float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Recipient == "" || req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "recipient and a positive amount are required")
		return
	}
	tx, err := s.ledger.Transact(req.Recipient, req.Amount)
	if err != nil {
		s.record("Transact", s.ledger.Address(), "failure", err.Error(), r)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.Printf("[DEVNODE] Pooled transaction %s: %g -> %s", tx.ID, req.Amount, req.Recipient)
	s.record("Transact", s.ledger.Address(), "success", "", r)
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleWalletInfo(w http.ResponseWriter, r *http.Request) {
	addr := s.ledger.Address()
	writeJSON(w, http.StatusOK, map[string]interface{}{"address": addr, "balance": s.ledger.Balance(addr)})
}

func (s *Server) handleKnownAddresses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.KnownAddresses())
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pool.GetAllTxs())
}

// Node and API versions reported by /version.
const (
	NodeVersion = "v0.1.0-dev"
	APIVersion  = "v1"
)

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"alive": true})
}

// handleReadiness reports ready once the chain holds its genesis block.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	ready := len(s.ledger.Blocks()) > 0
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]bool{"ready": ready})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"node": NodeVersion, "api": APIVersion})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[DEVNODE] Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
