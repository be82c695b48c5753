// Package api serves the stored holder snapshot and classified transfers over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"solana-holder-flow/internal/domain"
	"solana-holder-flow/internal/observability"
	"solana-holder-flow/internal/storage"
)

// Pagination defaults for /api/transactions.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Server exposes the read API.
type Server struct {
	holders   storage.HolderStore
	transfers storage.TransferStore
	router    *mux.Router
	logger    *log.Logger
}

// NewServer creates a Server and registers its routes.
func NewServer(holders storage.HolderStore, transfers storage.TransferStore, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		holders:   holders,
		transfers: transfers,
		router:    mux.NewRouter(),
		logger:    logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", observability.Handler()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/top-wallets", s.handleTopWallets).Methods(http.MethodGet)
	api.HandleFunc("/transactions", s.handleTransactions).Methods(http.MethodGet)
}

// Router returns the HTTP router for testing.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Printf("API listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// WalletResponse is one entry of /api/top-wallets.
type WalletResponse struct {
	WalletAddress   string          `json:"walletAddress"`
	TokenAmount     decimal.Decimal `json:"tokenAmount"`
	PercentageShare decimal.Decimal `json:"percentageShare"`
	Rank            int             `json:"rank"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// TransferResponse is one entry of /api/transactions.
type TransferResponse struct {
	TransferID    string          `json:"transferId"`
	WalletAddress string          `json:"walletAddress"`
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type"`
	Protocol      string          `json:"protocol"`
	Timestamp     time.Time       `json:"timestamp"`
	Signature     string          `json:"signature"`
}

// TransactionsResponse is the body of /api/transactions.
type TransactionsResponse struct {
	Page         int                `json:"page"`
	Limit        int                `json:"limit"`
	Total        int64              `json:"total"`
	Transactions []TransferResponse `json:"transactions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTopWallets(w http.ResponseWriter, r *http.Request) {
	holders, err := s.holders.ListHolders(r.Context())
	if err != nil {
		s.logger.Printf("list holders: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch top wallets")
		return
	}

	out := make([]WalletResponse, 0, len(holders))
	for _, h := range holders {
		out = append(out, WalletResponse{
			WalletAddress:   h.Address,
			TokenAmount:     h.Balance,
			PercentageShare: h.SharePct,
			Rank:            h.Rank,
			UpdatedAt:       h.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"topWallets": out})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	filter, page, err := parseTransferQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := s.transfers.List(r.Context(), filter)
	if err != nil {
		s.logger.Printf("list transfers: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch transactions")
		return
	}
	total, err := s.transfers.Count(r.Context(), filter)
	if err != nil {
		s.logger.Printf("count transfers: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch transactions")
		return
	}

	resp := TransactionsResponse{
		Page:         page,
		Limit:        filter.Limit,
		Total:        total,
		Transactions: make([]TransferResponse, 0, len(events)),
	}
	for _, e := range events {
		resp.Transactions = append(resp.Transactions, TransferResponse{
			TransferID:    e.TransferID,
			WalletAddress: e.WalletAddress,
			Amount:        e.Amount,
			Type:          e.Direction.String(),
			Protocol:      e.Protocol,
			Timestamp:     e.Timestamp,
			Signature:     e.TxSignature,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseTransferQuery reads wallet, type, from, to, page and limit.
func parseTransferQuery(r *http.Request) (domain.TransferFilter, int, error) {
	q := r.URL.Query()
	f := domain.TransferFilter{Wallet: q.Get("wallet"), Limit: DefaultLimit}

	if t := q.Get("type"); t != "" {
		f.Direction = domain.Direction(t)
		if !f.Direction.IsValid() {
			return f, 0, errors.New("type must be buy or sell")
		}
	}
	for _, bound := range []struct {
		key string
		dst **time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		v := q.Get(bound.key)
		if v == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, 0, errors.New(bound.key + " must be an RFC3339 timestamp")
		}
		ts = ts.UTC()
		*bound.dst = &ts
	}

	page := 1
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, 0, errors.New("page must be a positive integer")
		}
		page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, 0, errors.New("limit must be a positive integer")
		}
		f.Limit = min(n, MaxLimit)
	}
	// Offset must fit in an int.
	if page-1 > math.MaxInt/f.Limit {
		return f, 0, errors.New("page out of range")
	}
	f.Offset = (page - 1) * f.Limit
	return f, page, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
