package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smilepool/smilepool-executor/pkg/circuitbreaker"
	"github.com/smilepool/smilepool-executor/pkg/executor"
	"github.com/smilepool/smilepool-executor/pkg/feed"
	"github.com/smilepool/smilepool-executor/pkg/logger"
	"github.com/smilepool/smilepool-executor/pkg/models"
)

// StatusSource exposes the action state machine
type StatusSource interface {
	Status() executor.Status
}

// PoolSource exposes the cached pool snapshot
type PoolSource interface {
	Snapshot() *models.PoolSnapshot
	LastError() error
}

// ChainSource reads the execution layer
type ChainSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
	RecentSmiles(ctx context.Context, count int) ([]models.SmileRecord, error)
	RecentDonations(ctx context.Context, count int) ([]models.DonationRecord, error)
	TopSmilers(ctx context.Context, count int) ([]models.TopSmiler, error)
	TopDonors(ctx context.Context, count int) ([]models.TopDonor, error)
	TokenBalance(ctx context.Context, token, owner common.Address) (models.TokenBalance, error)
}

// FeedSource reads the off-chain feed
type FeedSource interface {
	List(ctx context.Context, filter feed.Filter) ([]models.FeedEntry, error)
	ProfilePhotos(ctx context.Context, addresses []string) (map[string]models.ProfilePhoto, error)
}

// Options configure the server
type Options struct {
	Port          string
	MetricsAPIKey string
	Network       string
	Account       common.Address
	RewardToken   common.Address

	// Defaults for POST /actions/donate
	DonationAsset  common.Address
	DonationRuneID string
}

// Server represents a health check HTTP server. Every source is optional.
type Server struct {
	opts     Options
	executor StatusSource
	pool     PoolSource
	chain    ChainSource
	feed     FeedSource
	breaker  *circuitbreaker.CircuitBreaker
	logger   logger.Logger
	srv      *http.Server

	// actions started over HTTP run on actionCtx and are awaited on Shutdown
	actionCtx    context.Context
	stopActions  context.CancelFunc
	actionsGroup sync.WaitGroup
}

// NewServer creates a new health check server
func NewServer(opts Options, exec StatusSource, pool PoolSource, chain ChainSource, feedSource FeedSource, breaker *circuitbreaker.CircuitBreaker, log logger.Logger) *Server {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	s := &Server{
		opts:     opts,
		executor: exec,
		pool:     pool,
		chain:    chain,
		feed:     feedSource,
		breaker:  breaker,
		logger:   log,
	}
	s.actionCtx, s.stopActions = context.WithCancel(context.Background())
	s.srv = &http.Server{
		Addr:              ":" + opts.Port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// authMiddleware checks for a valid API key
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip auth if no API key is configured
		if s.opts.MetricsAPIKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Missing Authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
			return
		}

		if parts[1] != s.opts.MetricsAPIKey {
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Handler returns the routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/smiles", s.handleSmiles)
	mux.HandleFunc("/donations", s.handleDonations)
	mux.HandleFunc("/donors", s.handleDonors)
	mux.HandleFunc("/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("/feed", s.handleFeed)

	// Circuit breaker admin control endpoint
	mux.Handle("/circuit/reset", s.authMiddleware(http.HandlerFunc(s.handleCircuitReset)))

	// Claim and donate with the server's key
	if runner, ok := s.executor.(ActionRunner); ok {
		mux.Handle("/actions/claim", s.authMiddleware(s.requireAPIKey(s.handleClaim(runner))))
		mux.Handle("/actions/donate", s.authMiddleware(s.requireAPIKey(s.handleDonate(runner))))
	}

	// Expose Prometheus metrics with API key authentication
	mux.Handle("/metrics", s.authMiddleware(promhttp.Handler()))

	return mux
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("Starting health and metrics server on port %s", s.opts.Port)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("health server error: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully and cancels running actions
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	s.stopActions()

	done := make(chan struct{})
	go func() {
		s.actionsGroup.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.chain == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("Chain client not connected"))
		return
	}
	if _, err := s.chain.BlockNumber(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(fmt.Sprintf("Chain unreachable: %v", err)))
		return
	}
	if s.pool != nil && s.pool.Snapshot() == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("Pool state not loaded"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Ready"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"network": s.opts.Network,
		"account": s.opts.Account.Hex(),
	}

	if s.breaker != nil {
		status["circuit"] = s.breaker.GetState()
	}
	if s.executor != nil {
		status["action"] = s.executor.Status()
	}

	if s.pool != nil {
		poolStatus := map[string]interface{}{"loaded": false}
		if snap := s.pool.Snapshot(); snap != nil {
			poolStatus["loaded"] = true
			poolStatus["address"] = snap.Pool.Hex()
			poolStatus["stats"] = snap.Display()
			poolStatus["fetched_at"] = snap.FetchedAt
		}
		if err := s.pool.LastError(); err != nil {
			poolStatus["last_error"] = err.Error()
		}
		status["pool"] = poolStatus
	}

	if s.chain != nil {
		if blockNumber, err := s.chain.BlockNumber(r.Context()); err == nil {
			status["latest_block"] = blockNumber
		}
		if s.opts.RewardToken != (common.Address{}) && s.opts.Account != (common.Address{}) {
			if balance, err := s.chain.TokenBalance(r.Context(), s.opts.RewardToken, s.opts.Account); err == nil {
				status["reward_token_balance"] = map[string]interface{}{
					"token":   balance.Token.Hex(),
					"symbol":  balance.Symbol,
					"balance": balance.Display(),
				}
			}
		}
	}

	s.writeJSON(w, status)
}

func (s *Server) handleSmiles(w http.ResponseWriter, r *http.Request) {
	if s.chain == nil {
		http.Error(w, "Chain client not connected", http.StatusServiceUnavailable)
		return
	}
	smiles, err := s.chain.RecentSmiles(r.Context(), queryInt(r, "count", 10))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	type row struct {
		Smiler    string    `json:"smiler"`
		Score     int64     `json:"score"`
		Reward    string    `json:"reward"`
		Message   string    `json:"message"`
		Timestamp time.Time `json:"timestamp"`
	}
	rows := make([]row, 0, len(smiles))
	for _, sm := range smiles {
		rows = append(rows, row{
			Smiler:    sm.Smiler.Hex(),
			Score:     sm.Score,
			Reward:    models.FormatUnits(sm.Reward, models.TokenDecimals),
			Message:   sm.Message,
			Timestamp: sm.Timestamp,
		})
	}
	s.writeJSON(w, rows)
}

func (s *Server) handleDonations(w http.ResponseWriter, r *http.Request) {
	if s.chain == nil {
		http.Error(w, "Chain client not connected", http.StatusServiceUnavailable)
		return
	}
	donations, err := s.chain.RecentDonations(r.Context(), queryInt(r, "count", 10))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	type row struct {
		Donor     string    `json:"donor"`
		Amount    string    `json:"amount"`
		Timestamp time.Time `json:"timestamp"`
	}
	rows := make([]row, 0, len(donations))
	for _, d := range donations {
		rows = append(rows, row{
			Donor:     d.Donor.Hex(),
			Amount:    models.FormatUnits(d.Amount, models.TokenDecimals),
			Timestamp: d.Timestamp,
		})
	}
	s.writeJSON(w, rows)
}

func (s *Server) handleDonors(w http.ResponseWriter, r *http.Request) {
	if s.chain == nil {
		http.Error(w, "Chain client not connected", http.StatusServiceUnavailable)
		return
	}
	donors, err := s.chain.TopDonors(r.Context(), queryInt(r, "count", 10))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	type row struct {
		Rank          int       `json:"rank"`
		Address       string    `json:"address"`
		TotalDonated  string    `json:"total_donated"`
		DonationCount int       `json:"donation_count"`
		LastDonation  time.Time `json:"last_donation"`
	}
	rows := make([]row, 0, len(donors))
	for i, d := range donors {
		rows = append(rows, row{
			Rank:          i + 1,
			Address:       d.Address.Hex(),
			TotalDonated:  models.FormatUnits(d.TotalDonated, models.TokenDecimals),
			DonationCount: d.DonationCount,
			LastDonation:  d.LastDonation,
		})
	}
	s.writeJSON(w, rows)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.chain == nil {
		http.Error(w, "Chain client not connected", http.StatusServiceUnavailable)
		return
	}
	top, err := s.chain.TopSmilers(r.Context(), queryInt(r, "count", 10))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	photos := map[string]models.ProfilePhoto{}
	if s.feed != nil && len(top) > 0 {
		addresses := make([]string, 0, len(top))
		for _, t := range top {
			addresses = append(addresses, t.Address.Hex())
		}
		// Photos are decoration, the board is served without them on failure
		if found, err := s.feed.ProfilePhotos(r.Context(), addresses); err != nil {
			s.logger.Error("Failed to load profile photos: %v", err)
		} else {
			photos = found
		}
	}

	type row struct {
		Rank        int    `json:"rank"`
		Address     string `json:"address"`
		BestScore   int64  `json:"best_score"`
		TotalSmiles int64  `json:"total_smiles"`
		TotalEarned string `json:"total_earned"`
		PhotoURL    string `json:"photo_url,omitempty"`
	}
	rows := make([]row, 0, len(top))
	for i, t := range top {
		rows = append(rows, row{
			Rank:        i + 1,
			Address:     t.Address.Hex(),
			BestScore:   t.BestScore,
			TotalSmiles: t.TotalSmiles,
			TotalEarned: models.FormatUnits(t.TotalEarned, models.TokenDecimals),
			PhotoURL:    photos[strings.ToLower(t.Address.Hex())].PhotoURL,
		})
	}
	s.writeJSON(w, rows)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	if s.feed == nil {
		http.Error(w, "Feed store not configured", http.StatusServiceUnavailable)
		return
	}
	entries, err := s.feed.List(r.Context(), feed.Filter{
		Address:  r.URL.Query().Get("address"),
		MinScore: int64(queryInt(r, "min_score", 0)),
		Limit:    queryInt(r, "limit", feed.DefaultLimit),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, entries)
}

func (s *Server) handleCircuitReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.breaker == nil {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("No circuit breaker configured"))
		return
	}

	s.breaker.Reset()
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Circuit breaker reset"))
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Error encoding JSON response: %v", err)
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
