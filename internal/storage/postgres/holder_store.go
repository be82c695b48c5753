package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"solana-holder-flow/internal/domain"
	"solana-holder-flow/internal/storage"
)

// HolderStore implements storage.HolderStore using PostgreSQL.
type HolderStore struct {
	pool *Pool
}

// NewHolderStore creates a new HolderStore.
func NewHolderStore(pool *Pool) *HolderStore {
	return &HolderStore{pool: pool}
}

// Compile-time interface check.
var _ storage.HolderStore = (*HolderStore)(nil)

// UpsertHolder inserts the holder or overwrites balance, share and rank.
func (s *HolderStore) UpsertHolder(ctx context.Context, h *domain.MonitoredWallet) (err error) {
	if err := storage.ValidateHolder(h); err != nil {
		return err
	}

	start := time.Now()
	defer func() { observe("upsert_holder", start, err) }()

	query := `
		INSERT INTO holders (address, balance, share_pct, rank, updated_at)
		VALUES ($1, $2::numeric, $3::numeric, $4, now())
		ON CONFLICT (address) DO UPDATE SET
			balance = EXCLUDED.balance,
			share_pct = EXCLUDED.share_pct,
			rank = EXCLUDED.rank,
			updated_at = now()
	`
	_, err = s.pool.Exec(ctx, query, h.Address, h.Balance.String(), h.SharePct.String(), h.Rank)
	if err != nil {
		return fmt.Errorf("upsert holder: %w", err)
	}
	return nil
}

// ListHolderAddresses returns every stored holder address.
func (s *HolderStore) ListHolderAddresses(ctx context.Context) (out []string, err error) {
	start := time.Now()
	defer func() { observe("list_holder_addresses", start, err) }()

	rows, err := s.pool.Query(ctx, `SELECT address FROM holders ORDER BY rank ASC, address ASC`)
	if err != nil {
		return nil, fmt.Errorf("query holder addresses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("scan holder address: %w", err)
		}
		out = append(out, addr)
	}
	return out, rows.Err()
}

// ListHolders returns holders ordered by rank ASC.
func (s *HolderStore) ListHolders(ctx context.Context) (out []*domain.MonitoredWallet, err error) {
	start := time.Now()
	defer func() { observe("list_holders", start, err) }()

	rows, err := s.pool.Query(ctx, `
		SELECT address, balance::text, share_pct::text, rank, updated_at
		FROM holders
		ORDER BY rank ASC, address ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query holders: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			h              domain.MonitoredWallet
			balance, share string
		)
		if err := rows.Scan(&h.Address, &balance, &share, &h.Rank, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan holder: %w", err)
		}
		if h.Balance, err = decimal.NewFromString(balance); err != nil {
			return nil, fmt.Errorf("parse balance for %s: %w", h.Address, err)
		}
		if h.SharePct, err = decimal.NewFromString(share); err != nil {
			return nil, fmt.Errorf("parse share for %s: %w", h.Address, err)
		}
		h.UpdatedAt = h.UpdatedAt.UTC()
		out = append(out, &h)
	}
	return out, rows.Err()
}

// PruneHolders deletes holders that dropped out of the latest snapshot.
func (s *HolderStore) PruneHolders(ctx context.Context, keep []string) (removed int64, err error) {
	if len(keep) == 0 {
		return 0, fmt.Errorf("%w: empty keep list", storage.ErrInvalidInput)
	}

	start := time.Now()
	defer func() { observe("prune_holders", start, err) }()

	tag, err := s.pool.Exec(ctx, `DELETE FROM holders WHERE NOT (address = ANY($1::text[]))`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune holders: %w", err)
	}
	return tag.RowsAffected(), nil
}
