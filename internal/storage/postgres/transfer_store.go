package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"solana-holder-flow/internal/domain"
	"solana-holder-flow/internal/storage"
)

// TransferStore implements storage.TransferStore using PostgreSQL.
type TransferStore struct {
	pool *Pool
}

// NewTransferStore creates a new TransferStore.
func NewTransferStore(pool *Pool) *TransferStore {
	return &TransferStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransferStore = (*TransferStore)(nil)

// InsertIfAbsent stores e. A conflict on transfer_id or
// (tx_signature, instruction_index) is a no-op reported as false.
func (s *TransferStore) InsertIfAbsent(ctx context.Context, e *domain.TransferEvent) (inserted bool, err error) {
	if err := storage.ValidateTransfer(e); err != nil {
		return false, err
	}

	start := time.Now()
	defer func() { observe("insert_transfer", start, err) }()

	query := `
		INSERT INTO transfers (
			transfer_id, wallet_address, amount, direction, protocol,
			timestamp, tx_signature, instruction_index, slot
		) VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, $9)
		ON CONFLICT DO NOTHING
	`
	tag, err := s.pool.Exec(ctx, query,
		e.TransferID, e.WalletAddress, e.Amount.String(), string(e.Direction), e.Protocol,
		e.Timestamp.UTC(), e.TxSignature, e.InstructionIndex, e.Slot,
	)
	if err != nil {
		return false, fmt.Errorf("insert transfer: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// List returns matching transfers ordered by timestamp DESC, then transfer_id.
func (s *TransferStore) List(ctx context.Context, f domain.TransferFilter) (out []*domain.TransferEvent, err error) {
	start := time.Now()
	defer func() { observe("list_transfers", start, err) }()

	where, args := whereClause(f)
	query := `
		SELECT transfer_id, wallet_address, amount::text, direction, protocol,
			timestamp, tx_signature, instruction_index, slot
		FROM transfers` + where + `
		ORDER BY timestamp DESC, transfer_id ASC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transfers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns the number of transfers matching f.
func (s *TransferStore) Count(ctx context.Context, f domain.TransferFilter) (n int64, err error) {
	start := time.Now()
	defer func() { observe("count_transfers", start, err) }()

	where, args := whereClause(f)
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM transfers`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transfers: %w", err)
	}
	return n, nil
}

func whereClause(f domain.TransferFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Wallet != "" {
		add("wallet_address = $%d", f.Wallet)
	}
	if f.Direction != "" {
		add("direction = $%d", string(f.Direction))
	}
	if f.From != nil {
		add("timestamp >= $%d", f.From.UTC())
	}
	if f.To != nil {
		add("timestamp <= $%d", f.To.UTC())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanTransfer(rows pgx.Rows) (*domain.TransferEvent, error) {
	var (
		e         domain.TransferEvent
		amount    string
		direction string
	)
	err := rows.Scan(
		&e.TransferID, &e.WalletAddress, &amount, &direction, &e.Protocol,
		&e.Timestamp, &e.TxSignature, &e.InstructionIndex, &e.Slot,
	)
	if err != nil {
		return nil, fmt.Errorf("scan transfer: %w", err)
	}
	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount for %s: %w", e.TransferID, err)
	}
	e.Direction = domain.Direction(direction)
	e.Timestamp = e.Timestamp.UTC()
	return &e, nil
}
